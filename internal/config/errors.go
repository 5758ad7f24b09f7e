package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSeedURL is returned when --url is missing.
	ErrNoSeedURL = errors.New("no seed url specified: use --url")

	// ErrInvalidSeedURL is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeedURL = errors.New("invalid seed url: must be an absolute http or https url")

	// ErrInvalidDepth is returned when the depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidThreads is returned when the worker budget is not positive.
	ErrInvalidThreads = errors.New("invalid threads: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReportConcurrency is returned when the Gephi concurrency is not positive.
	ErrInvalidReportConcurrency = errors.New("invalid report concurrency: must be positive")

	// ErrInvalidWikiAmount is returned when --amount is not positive.
	ErrInvalidWikiAmount = errors.New("invalid amount: must be positive")

	// ErrInvalidWikiLink is returned when --link is negative.
	ErrInvalidWikiLink = errors.New("invalid link index: must be non-negative")

	// ErrUnknownMode is returned for a traversal mode other than html or wiki.
	ErrUnknownMode = errors.New("unknown traversal mode")

	// ErrUnknownFormat is returned for an export format other than csv, json or markdown.
	ErrUnknownFormat = errors.New("unknown export format: use csv, json or markdown")

	// ErrInvalidGephiEndpoint is returned when the Gephi endpoint cannot be parsed.
	ErrInvalidGephiEndpoint = errors.New("invalid gephi endpoint")

	// ErrConflictingProxies is returned when both --tor and --proxy are given.
	ErrConflictingProxies = errors.New("conflicting proxies: --tor and --proxy cannot be used together")

	// ErrOnionNeedsTor is returned for an onion seed without a Tor route.
	ErrOnionNeedsTor = errors.New("onion seed requires --tor or --proxy")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

// Package config loads, normalizes, and validates subcue configuration.
//
// It supplies defaults for every provider budget, expands user paths
// (including tilde shortcuts), reads TOML files, and honours environment
// fallbacks such as DASHSCOPE_API_KEY and BILIBILI_COOKIE. Commands obtain
// settings through this package so the pipeline receives sanitized values
// and clear validation errors.
package config

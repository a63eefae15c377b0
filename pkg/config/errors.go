package config

import "errors"

var ErrParsingConfig = errors.New("config.parse_failed")

package handler

import "errors"

var ErrNilResponse = errors.New("handler.nil_response")

package router

import "errors"

var ErrJoinFailed = errors.New("join-class failed")

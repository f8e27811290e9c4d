package main

import "errors"

// Errors already shown to the user by the renderer
var (
	errListFailed   = errors.New("items could not be loaded")
	errSubmitFailed = errors.New("item was not submitted")
	errActionFailed = errors.New("moderation action failed")
)

var errNoAppHolder = errors.New("command must run through ExecuteContext with an app holder")

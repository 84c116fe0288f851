package main

import "errors"

var (
	ErrGetHomeDir  = errors.New("get home dir")
	ErrLoadConfig  = errors.New("load gate config")
	ErrOpenPolicy  = errors.New("open policy store")
	ErrBuildFilter = errors.New("build admission filter")
	ErrReadFile    = errors.New("read file")
)

//go:build !nogpu

package main

import _ "github.com/gogpu/texstream/backend/native"

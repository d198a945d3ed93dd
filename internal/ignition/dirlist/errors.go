package dirlist

import "errors"

var errNotCompiled = errors.New("dirlist: directory listing not compiled in")

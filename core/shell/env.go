package shell

import "os"

var osEnviron = os.Environ

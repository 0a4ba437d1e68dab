package rpctest

import (
	"os"

	"github.com/dmora/dcrpc"
)

// HelperEnv is set in the environment of a helper process started with
// HelperOptions.
const HelperEnv = "DCRPC_RPCTEST_HELPER"

// HelperOptions returns client options that start the running test binary
// as the server, running only testName. The test must check
// IsHelperProcess first and serve when it reports true. env is appended
// to the inherited environment.
func HelperOptions(testName string, env ...string) []dcrpc.Option {
	childEnv := append(os.Environ(), env...)
	childEnv = append(childEnv, HelperEnv+"=1")
	return []dcrpc.Option{
		dcrpc.WithBinary(os.Args[0]),
		dcrpc.WithArgs("-test.run=^"+testName+"$", "-test.count=1"),
		dcrpc.WithEnv(childEnv),
	}
}

// IsHelperProcess reports whether the current process was started by a
// client configured with HelperOptions.
func IsHelperProcess() bool {
	return os.Getenv(HelperEnv) == "1"
}

// Package rpctest provides a fake newline-delimited JSON-RPC 2.0 server for
// testing code built on dcrpc.
//
// A [Server] serves registered handlers over any reader/writer pair,
// records every request it receives, and can push "event" notifications
// for an account at any time:
//
//	srv := rpctest.NewServer()
//	srv.HandleResult("get_system_info", map[string]string{"deltachat_core_version": "test"})
//	srv.Handle("add_account", func(ctx context.Context, params json.RawMessage) (any, error) {
//	    srv.Emit(1, map[string]any{"kind": "AccountsChanged"})
//	    return 1, nil
//	})
//
// To run a Server as a real child process, use the helper process idiom:
// [HelperOptions] makes a dcrpc.Client start the running test binary,
// and the named test function calls [Server.ServeStdio] when
// [IsHelperProcess] reports true.
package rpctest

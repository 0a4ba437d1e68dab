// Package dcrpc is a client for JSON-RPC 2.0 servers that run as a child
// process and speak newline-delimited JSON on stdin/stdout, such as the
// Delta Chat deltachat-rpc-server.
//
// # Core Types
//
//   - [Client]: owns the server process, issues calls, buffers events
//   - [Named]: by-name parameters for [Client.Call]
//   - [RemoteError]: an error object returned by the server
//   - [Option]: functional options for [New]
//
// # Calls
//
// [Client.Call] takes any method name the server understands; nothing is
// declared in advance. Requests carry a fresh integer id and the client
// matches responses by id, so concurrent calls complete in whatever order
// the server answers them.
//
// # Events
//
// The server pushes notifications of the form
//
//	{"method":"event","params":{"contextId":1,"event":{...}}}
//
// which are queued per account (context id) in arrival order and read with
// [Client.WaitForEvent].
//
// # Quick Start
//
//	err := dcrpc.Run(ctx, func(c *dcrpc.Client) error {
//	    info, err := c.Call(ctx, "get_system_info")
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(string(info))
//	    return nil
//	}, dcrpc.WithAccountsDir("/var/lib/bot/accounts"))
package dcrpc

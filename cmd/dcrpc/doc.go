// Command dcrpc starts a Delta Chat RPC server and talks to it from the
// shell: raw method calls, system and account overviews, and an event
// stream per account.
//
//	dcrpc info
//	dcrpc call get_config 1 addr
//	dcrpc call set_config --named account_id=1 --named key=bot --named value=1
//	dcrpc events 1 --start-io
package main

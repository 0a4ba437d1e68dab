package dcrpc

// Named carries keyword arguments for a call. It must be the only argument
// passed to Call; the request then uses by-name parameter encoding.
//
//	client.Call(ctx, "get_config", dcrpc.Named{"account_id": 1, "key": "addr"})
//
// Plain maps are ordinary positional values.
type Named map[string]any

// encodeParams builds the JSON-RPC params value for a call's arguments.
// Zero arguments (or an empty Named) encode as an empty array.
func encodeParams(args []any) (any, error) {
	var named Named
	found := false
	for _, a := range args {
		n, ok := a.(Named)
		if !ok {
			continue
		}
		if found || len(args) > 1 {
			return nil, ErrMixedParams
		}
		named, found = n, true
	}
	if found && len(named) > 0 {
		return map[string]any(named), nil
	}
	if found || len(args) == 0 {
		return []any{}, nil
	}
	return args, nil
}

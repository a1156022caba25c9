package ir

// Encode converts an IR tree into a JSON object tree. Every object carries a
// "kind" key; operators are spelled as in Format.
func Encode(n Node) JSONValue {
	switch x := n.(type) {
	case Number:
		return encodeNumber(x)
	case List:
		return encodeList(x)
	}
	return JSONObject{"kind": JSONString("unknown")}
}

func encodeNumber(n Number) JSONObject {
	switch x := n.(type) {
	case *Constant:
		return JSONObject{"kind": JSONString("constant"), "value": JSONFloat(x.Value)}
	case *Neg:
		return JSONObject{"kind": JSONString("neg"), "x": encodeNumber(x.X)}
	case *Arith:
		return JSONObject{
			"kind": JSONString("arith"),
			"op":   JSONString(x.Op.String()),
			"lhs":  encodeNumber(x.LHS),
			"rhs":  encodeNumber(x.RHS),
		}
	case *NumberFunc:
		return JSONObject{"kind": JSONString("func"), "fn": JSONString(x.Fn.String()), "arg": encodeNumber(x.Arg)}
	case *Aggregate:
		return JSONObject{"kind": JSONString("aggregate"), "fn": JSONString(x.Fn.String()), "list": encodeList(x.List)}
	case *StandardDice:
		return JSONObject{"kind": JSONString("dice"), "count": encodeNumber(x.Count), "sides": encodeNumber(x.Sides)}
	case *FudgeDice:
		return JSONObject{"kind": JSONString("fudge"), "count": encodeNumber(x.Count)}
	case *CoinDice:
		return JSONObject{"kind": JSONString("coin"), "count": encodeNumber(x.Count)}
	case *Select:
		return JSONObject{
			"kind": JSONString("select"),
			"op":   JSONString(x.Op.String()),
			"pool": encodeNumber(x.Pool),
			"n":    encodeNumber(x.N),
		}
	case *Dynamic:
		obj := JSONObject{
			"kind": JSONString("dynamic"),
			"op":   JSONString(x.Op.String()),
			"pool": encodeNumber(x.Pool),
		}
		if x.Param != nil {
			obj["param"] = encodeParam(*x.Param)
		}
		if x.Limit != nil {
			limit := JSONObject{}
			if x.Limit.Times != nil {
				limit["times"] = encodeNumber(x.Limit.Times)
			}
			if x.Limit.Counts != nil {
				limit["counts"] = encodeNumber(x.Limit.Counts)
			}
			obj["limit"] = limit
		}
		return obj
	case *SubtractFailures:
		return JSONObject{"kind": JSONString("subtract_failures"), "pool": encodeNumber(x.Pool), "param": encodeParam(x.Param)}
	case *Success:
		return JSONObject{
			"kind":   JSONString("success"),
			"op":     JSONString(x.Op.String()),
			"source": encodeNumber(x.Source()),
			"param":  encodeParam(x.Param),
		}
	}
	return JSONObject{"kind": JSONString("unknown")}
}

func encodeList(l List) JSONObject {
	switch x := l.(type) {
	case *Explicit:
		items := make(JSONArray, len(x.Items))
		for i, item := range x.Items {
			items[i] = encodeNumber(item)
		}
		return JSONObject{"kind": JSONString("explicit"), "items": items}
	case *ListFunc:
		return JSONObject{"kind": JSONString("list_func"), "fn": JSONString(x.Fn.String()), "list": encodeList(x.List)}
	case *Pick:
		return JSONObject{
			"kind":    JSONString("pick"),
			"highest": JSONBool(x.Highest),
			"list":    encodeList(x.List),
			"k":       encodeNumber(x.K),
		}
	case *FromDice:
		return JSONObject{"kind": JSONString("from_dice"), "pool": encodeNumber(x.Pool)}
	case *FromSuccess:
		return JSONObject{"kind": JSONString("from_success"), "pool": encodeNumber(x.Pool)}
	case *Filter:
		return JSONObject{"kind": JSONString("filter"), "list": encodeList(x.List), "param": encodeParam(x.Param)}
	case *Concat:
		return JSONObject{"kind": JSONString("concat"), "lhs": encodeList(x.LHS), "rhs": encodeList(x.RHS)}
	case *Broadcast:
		return JSONObject{
			"kind":    JSONString("broadcast"),
			"op":      JSONString(x.Op.String()),
			"list":    encodeList(x.List),
			"number":  encodeNumber(x.Number),
			"reverse": JSONBool(x.Reverse),
		}
	}
	return JSONObject{"kind": JSONString("unknown")}
}

func encodeParam(p ModParam) JSONObject {
	return JSONObject{"op": JSONString(p.Op.String()), "value": encodeNumber(p.Value)}
}

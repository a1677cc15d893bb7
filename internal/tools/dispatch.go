package tools

import (
	"context"
	"encoding/json"
	"fmt"

	xerrors "Web3-MCP/internal/errors"
)

// Names 返回全部工具名称，顺序与注册顺序一致。
func Names() []string {
	return []string{
		ToolWalletBalance,
		ToolTokenPrice,
		ToolSendETH,
		ToolInteract,
		ToolERC20Balance,
		ToolWrapETH,
		ToolSwapTokens,
	}
}

// Call 按名称分发工具调用，args 为 JSON 解码后的参数表。
func (k *Toolkit) Call(ctx context.Context, name string, args map[string]any) Result {
	p := params(args)
	switch name {
	case ToolWalletBalance:
		return k.WalletBalance(ctx, p.str("address"))
	case ToolTokenPrice:
		return k.TokenPrice(ctx, p.str("token_pair"))
	case ToolSendETH:
		return k.SendETH(ctx, p.str("to_address"), p["amount_eth"])
	case ToolInteract:
		fnArgs, err := p.list("function_args")
		if err != nil {
			return k.run(ctx, ToolInteract, func(context.Context) (outcome, error) { return outcome{}, err })
		}
		return k.InteractWithContract(ctx, ContractCall{
			Address:  p.str("contract_address"),
			ABI:      p.raw("abi"),
			Function: p.str("function_name"),
			Args:     fnArgs,
			Write:    p.boolean("is_write_transaction"),
		})
	case ToolERC20Balance:
		return k.ERC20Balance(ctx, p.str("token_address"), p.str("wallet_address"))
	case ToolWrapETH:
		return k.WrapETH(ctx, p["amount_eth"])
	case ToolSwapTokens:
		return k.SwapTokens(ctx, SwapRequest{
			TokenIn:  p.str("token_in_address"),
			TokenOut: p.str("token_out_address"),
			AmountIn: p["amount_in"],
			Fee:      p["fee"],
		})
	}
	return Result{
		Tool:   name,
		Status: StatusRejected,
		Code:   xerrors.CodeNotFound,
		Text:   fmt.Sprintf("Error: Unknown tool: %s", name),
	}
}

type params map[string]any

func (p params) str(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// raw 返回字符串参数；若客户端直接传入 JSON 结构，则重新编码为文本。
func (p params) raw(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func (p params) boolean(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "True" || v == "1"
	}
	return false
}

// list 接受 JSON 数组，或内容为 JSON 数组的字符串。
func (p params) list(key string) ([]any, error) {
	switch v := p[key].(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var out []any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "function_args must be a JSON array")
		}
		return out, nil
	}
	return nil, xerrors.Newf(xerrors.CodeInvalidArgument, "function_args must be a JSON array, got %T", p[key])
}

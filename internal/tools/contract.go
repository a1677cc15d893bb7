package tools

import (
	"context"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/web3/ethereum"
)

// ContractCall 描述一次通用合约调用。
type ContractCall struct {
	Address  string
	ABI      string
	Function string
	Args     []any
	Write    bool
}

// InteractWithContract 根据调用方提供的 ABI 调用任意合约函数。
// 读操作通过 eth_call 返回 JSON 结果；写操作签名提交后返回哈希，不等待确认。
func (k *Toolkit) InteractWithContract(ctx context.Context, call ContractCall) Result {
	return k.run(ctx, ToolInteract, func(ctx context.Context) (outcome, error) {
		target, ok := parseAddress(call.Address)
		if !ok {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Invalid contract address: %s", call.Address)
		}
		parsed, err := ethereum.ParseABI(call.ABI)
		if err != nil {
			return outcome{}, err
		}
		method, err := ethereum.ResolveMethod(parsed, call.Function, len(call.Args))
		if err != nil {
			return outcome{}, err
		}
		args, err := ethereum.CoerceArgs(method, call.Args)
		if err != nil {
			return outcome{}, err
		}
		contract := ethereum.NewContract(target, parsed)
		data, err := contract.Pack(method.Name, args...)
		if err != nil {
			return outcome{}, err
		}

		s, err := k.session(ctx)
		if err != nil {
			return outcome{}, err
		}

		if !call.Write {
			values, err := s.Call(ctx, contract, method.Name, args...)
			if err != nil {
				return outcome{}, err
			}
			text, err := ethereum.EncodeResult(values)
			if err != nil {
				return outcome{}, err
			}
			return outcome{text: text}, nil
		}

		nonce, err := s.NextNonce(ctx)
		if err != nil {
			return outcome{}, err
		}
		hash, err := k.transact(ctx, s, ToolInteract, ethereum.TxRequest{
			To:    target,
			Data:  data,
			Nonce: nonce,
		}, false)
		if err != nil {
			return outcome{}, err
		}
		return outcome{text: "Write transaction sent. Hash: " + hash.Hex(), txHash: hash.Hex()}, nil
	})
}

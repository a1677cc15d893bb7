package tools

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"
)

const supportedPair = "ETH/USD"

// TokenPrice 读取预言机喂价。目前只支持 ETH/USD，大小写不敏感。
func (k *Toolkit) TokenPrice(ctx context.Context, pair string) Result {
	return k.run(ctx, ToolTokenPrice, func(ctx context.Context) (outcome, error) {
		if !strings.EqualFold(strings.TrimSpace(pair), supportedPair) {
			return outcome{}, reject(xerrors.CodeUnsupported, "This tool currently only supports the '%s' token pair.", supportedPair)
		}
		s, err := k.session(ctx)
		if err != nil {
			return outcome{}, err
		}
		feed := ethereum.NewContract(k.network.PriceFeed, priceFeedABI)
		round, err := s.Call(ctx, feed, "latestRoundData")
		if err != nil {
			return outcome{}, err
		}
		if len(round) < 4 {
			return outcome{}, xerrors.New(xerrors.CodeRPCFailure, "latestRoundData 返回字段不足")
		}
		answer, ok := round[1].(*big.Int)
		if !ok {
			return outcome{}, xerrors.Newf(xerrors.CodeRPCFailure, "latestRoundData answer 类型异常: %T", round[1])
		}
		updatedAt, ok := round[3].(*big.Int)
		if !ok {
			return outcome{}, xerrors.Newf(xerrors.CodeRPCFailure, "latestRoundData updatedAt 类型异常: %T", round[3])
		}
		decimals, err := callDecimals(ctx, s, feed)
		if err != nil {
			return outcome{}, err
		}

		if age := k.now().Sub(time.Unix(updatedAt.Int64(), 0)); age > k.staleness {
			k.log.Warn("price feed answer is stale",
				slog.String("pair", supportedPair),
				slog.String("feed", k.network.PriceFeed.Hex()),
				slog.Duration("age", age),
				slog.Duration("threshold", k.staleness),
			)
		}

		price := web3.FromBaseUnits(answer, decimals)
		return outcome{text: fmt.Sprintf("The latest price for %s is $%s", pair, price.StringFixed(2))}, nil
	})
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/events"
	"Web3-MCP/internal/observability/metrics"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"
	"Web3-MCP/pkg/logger"
)

// 工具名称。
const (
	ToolWalletBalance = "get_wallet_balance"
	ToolTokenPrice    = "get_token_price"
	ToolSendETH       = "send_eth"
	ToolInteract      = "interact_with_contract"
	ToolERC20Balance  = "get_erc20_balance"
	ToolWrapETH       = "wrap_eth"
	ToolSwapTokens    = "swap_tokens_for_tokens"
)

// Status 描述一次工具调用的结果类别，供调用方判断是否可以重试。
type Status string

const (
	StatusOK               Status = "ok"
	StatusRejected         Status = "rejected"
	StatusSubmissionFailed Status = "submission_failed"
	StatusExecutionFailed  Status = "execution_failed"
	StatusUnknown          Status = "status_unknown"
	StatusError            Status = "error"
)

// Result 是所有工具统一的返回值。
type Result struct {
	Tool   string       `json:"tool"`
	Status Status       `json:"status"`
	Code   xerrors.Code `json:"code,omitempty"`
	Text   string       `json:"text"`
	TxHash string       `json:"tx_hash,omitempty"`
}

// OK 判断调用是否成功。
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// SessionProvider 提供懒加载的链会话。
type SessionProvider interface {
	Session(ctx context.Context) (*ethereum.Session, error)
}

// Options 汇总 Toolkit 的依赖。
type Options struct {
	Network             web3.NetworkProfile
	Sessions            SessionProvider
	Publisher           events.Publisher
	ConfirmationTimeout time.Duration
	PriceStaleness      time.Duration
	Clock               func() time.Time
	Logger              *slog.Logger
}

// Toolkit 是工具执行所需的显式上下文，取代隐式的全局连接状态。
type Toolkit struct {
	network        web3.NetworkProfile
	sessions       SessionProvider
	publisher      events.Publisher
	confirmTimeout time.Duration
	staleness      time.Duration
	now            func() time.Time
	log            *slog.Logger
}

// New 创建 Toolkit。
func New(opts Options) (*Toolkit, error) {
	if opts.Sessions == nil {
		return nil, errors.New("未提供链会话")
	}
	if opts.Network.Name == "" {
		return nil, errors.New("未选择网络配置")
	}
	k := &Toolkit{
		network:        opts.Network,
		sessions:       opts.Sessions,
		publisher:      opts.Publisher,
		confirmTimeout: opts.ConfirmationTimeout,
		staleness:      opts.PriceStaleness,
		now:            opts.Clock,
		log:            opts.Logger,
	}
	if k.publisher == nil {
		k.publisher = events.NewLogPublisher(nil)
	}
	if k.confirmTimeout <= 0 {
		k.confirmTimeout = 300 * time.Second
	}
	if k.staleness <= 0 {
		k.staleness = time.Hour
	}
	if k.now == nil {
		k.now = time.Now
	}
	if k.log == nil {
		k.log = logger.Named("tools")
	}
	return k, nil
}

// Network 返回当前使用的网络配置。
func (k *Toolkit) Network() web3.NetworkProfile {
	return k.network
}

// outcome 是工具内部实现的成功返回值。
type outcome struct {
	text   string
	txHash string
}

// run 是唯一的错误边界：把内部错误与 panic 转换为 Result，并记录日志与指标。
func (k *Toolkit) run(ctx context.Context, tool string, fn func(ctx context.Context) (outcome, error)) (res Result) {
	start := k.now()
	var out outcome
	defer func() {
		if r := recover(); r != nil {
			err := xerrors.New(xerrors.CodeUnknown, fmt.Sprint(r))
			k.log.Error("tool panicked",
				slog.String("tool", tool),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			res = k.fault(tool, out, err)
		}
		metrics.ObserveTool(tool, string(res.Status), k.now().Sub(start))
	}()

	out, err := fn(ctx)
	if err == nil {
		return Result{Tool: tool, Status: StatusOK, Text: out.text, TxHash: out.txHash}
	}
	return k.fault(tool, out, err)
}

func (k *Toolkit) fault(tool string, out outcome, err error) Result {
	code := xerrors.CodeOf(err)
	txHash := out.txHash
	if e, ok := xerrors.From(err); ok && txHash == "" {
		txHash = e.Metadata()["tx_hash"]
	}

	if e, ok := xerrors.From(err); ok && e.Reported() {
		k.log.Info("tool rejected input",
			slog.String("tool", tool),
			slog.String("code", string(code)),
			slog.String("reason", e.Message()),
		)
		return Result{Tool: tool, Status: StatusRejected, Code: code, Text: "Error: " + describe(err)}
	}

	status := StatusError
	switch code {
	case xerrors.CodeSubmissionFailed:
		status = StatusSubmissionFailed
	case xerrors.CodeExecutionFailed:
		status = StatusExecutionFailed
	case xerrors.CodeConfirmationTimeout:
		status = StatusUnknown
	default:
		// 交易已广播但确认阶段出错，链上结果仍不确定。
		if txHash != "" {
			status = StatusUnknown
		}
	}

	level := slog.LevelError
	if xerrors.SeverityOf(err) != xerrors.SeverityCritical {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("tool", tool),
		slog.String("code", string(code)),
		slog.String("status", string(status)),
		slog.Bool("retryable", xerrors.RetryableError(err)),
		slog.Any("error", err),
	}
	if txHash != "" {
		attrs = append(attrs, slog.String("tx_hash", txHash))
	}
	k.log.LogAttrs(context.Background(), level, "tool failed", attrs...)

	text := fmt.Sprintf("Error in %s: %s - %s", tool, code, describe(err))
	if txHash != "" {
		text += " (tx: " + txHash + ")"
	}
	return Result{Tool: tool, Status: status, Code: code, Text: text, TxHash: txHash}
}

// describe 返回不带错误码前缀的错误描述。
func describe(err error) string {
	e, ok := xerrors.From(err)
	if !ok {
		return err.Error()
	}
	if cause := errors.Unwrap(e); cause != nil {
		return e.Message() + ": " + cause.Error()
	}
	return e.Message()
}

func (k *Toolkit) session(ctx context.Context) (*ethereum.Session, error) {
	return k.sessions.Session(ctx)
}

// reject 构造预期内的输入错误。
func reject(code xerrors.Code, format string, args ...any) error {
	return xerrors.Newf(code, format, args...)
}

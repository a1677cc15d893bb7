package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the MCP implementation name announced to clients.
const ServerName = "web3_server"

// Definitions returns the MCP tool descriptors in registration order.
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolWalletBalance,
			mcp.WithDescription("Gets the native token balance of a given wallet address."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("address",
				mcp.Required(),
				mcp.Description("Wallet address (0x-prefixed hex)")),
		),
		mcp.NewTool(ToolTokenPrice,
			mcp.WithDescription("Gets the latest price of a token pair from the on-chain price feed. Only 'ETH/USD' is supported."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("token_pair",
				mcp.Required(),
				mcp.Description("Token pair, e.g. 'ETH/USD'")),
		),
		mcp.NewTool(ToolSendETH,
			mcp.WithDescription("Sends native ETH from the agent wallet to a recipient. Returns the transaction hash without waiting for confirmation."),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("to_address",
				mcp.Required(),
				mcp.Description("Recipient address")),
			mcp.WithNumber("amount_eth",
				mcp.Required(),
				mcp.Description("Amount of ETH to send; must be greater than 0")),
		),
		mcp.NewTool(ToolInteract,
			mcp.WithDescription(
				"Calls any contract function using a caller-supplied ABI. "+
					"Read calls return the decoded result as JSON; write calls are signed by the agent and return the transaction hash."),
			mcp.WithString("contract_address",
				mcp.Required(),
				mcp.Description("Target contract address")),
			mcp.WithString("abi",
				mcp.Required(),
				mcp.Description("Contract ABI as JSON text")),
			mcp.WithString("function_name",
				mcp.Required(),
				mcp.Description("Function to call; overloads are resolved by argument count")),
			mcp.WithArray("function_args",
				mcp.Description("Ordered positional arguments. Use strings for large integers; bytesN values must be hex of exactly N bytes; mixed-case addresses must be EIP-55 checksummed; tuples may be lists or objects keyed by component name.")),
			mcp.WithBoolean("is_write_transaction",
				mcp.DefaultBool(false),
				mcp.Description("Submit a signed transaction instead of a read-only call")),
		),
		mcp.NewTool(ToolERC20Balance,
			mcp.WithDescription("Gets the ERC-20 token balance of a wallet, scaled by the token's decimals."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("token_address",
				mcp.Required(),
				mcp.Description("ERC-20 token contract address")),
			mcp.WithString("wallet_address",
				mcp.Required(),
				mcp.Description("Wallet address to query")),
		),
		mcp.NewTool(ToolWrapETH,
			mcp.WithDescription("Converts native ETH into WETH by depositing into the WETH contract. Waits for confirmation."),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithNumber("amount_eth",
				mcp.Required(),
				mcp.Description("Amount of ETH to wrap; must be greater than 0")),
		),
		mcp.NewTool(ToolSwapTokens,
			mcp.WithDescription(
				"Swaps tokens on Uniswap V3 through a single pool. Approves the router, waits for confirmation, then swaps and waits again. "+
					"No slippage protection is applied."),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("token_in_address",
				mcp.Required(),
				mcp.Description("Address of the token to sell")),
			mcp.WithString("token_out_address",
				mcp.Required(),
				mcp.Description("Address of the token to buy")),
			mcp.WithNumber("amount_in",
				mcp.Required(),
				mcp.Description("Amount of token_in to sell, in display units")),
			mcp.WithNumber("fee",
				mcp.DefaultNumber(DefaultFeeTier),
				mcp.Description("Pool fee tier in hundredths of a bip (500, 3000, 10000)")),
		),
	}
}

// NewMCPServer registers every tool of k on a new MCP server.
func NewMCPServer(k *Toolkit, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, tool := range Definitions() {
		s.AddTool(tool, k.handler(tool.Name))
	}
	return s
}

func (k *Toolkit) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := k.Call(ctx, name, request.GetArguments())
		if !res.OK() {
			return mcp.NewToolResultError(res.Text), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}

package tools

import "Web3-MCP/internal/web3/ethereum"

const priceFeedABIJSON = `[
  {
    "inputs": [],
    "name": "latestRoundData",
    "outputs": [
      {"internalType": "uint80", "name": "roundId", "type": "uint80"},
      {"internalType": "int256", "name": "answer", "type": "int256"},
      {"internalType": "uint256", "name": "startedAt", "type": "uint256"},
      {"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
      {"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "decimals",
    "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const erc20ABIJSON = `[
  {"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
  {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
  {"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

const wethABIJSON = `[
  {"constant":false,"inputs":[],"name":"deposit","outputs":[],"payable":true,"stateMutability":"payable","type":"function"},
  {"constant":true,"inputs":[{"name":"","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

const swapRouterABIJSON = `[
  {"inputs":[{"components":[
      {"type":"address","name":"tokenIn"},
      {"type":"address","name":"tokenOut"},
      {"type":"uint24","name":"fee"},
      {"type":"address","name":"recipient"},
      {"type":"uint256","name":"amountIn"},
      {"type":"uint256","name":"amountOutMinimum"},
      {"type":"uint160","name":"sqrtPriceLimitX96"}
    ],"type":"tuple","name":"params"}],
   "name":"exactInputSingle","outputs":[{"type":"uint256","name":"amountOut"}],"stateMutability":"payable","type":"function"}
]`

var (
	priceFeedABI  = ethereum.MustParseABI(priceFeedABIJSON)
	erc20ABI      = ethereum.MustParseABI(erc20ABIJSON)
	wethABI       = ethereum.MustParseABI(wethABIJSON)
	swapRouterABI = ethereum.MustParseABI(swapRouterABIJSON)
)

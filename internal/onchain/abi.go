package onchain

import (
	"io"
	"strings"
)

// Minimal ERC20 ABI, only the Transfer event.

func mustERC20ABI() io.Reader {
	return strings.NewReader(`[
		{
			"name": "Transfer",
			"type": "event",
			"anonymous": false,
			"inputs": [
				{"name": "from",  "type": "address", "indexed": true},
				{"name": "to",    "type": "address", "indexed": true},
				{"name": "value", "type": "uint256", "indexed": false}
			]
		}
	]`)
}

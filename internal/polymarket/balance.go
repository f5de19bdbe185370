package polymarket

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// usdcDecimals is the exponent of the USDC ERC-20 token.
const usdcDecimals = 6

// balanceOfSelector is the 4-byte selector of balanceOf(address).
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// BalanceReader reads the funder wallet's USDC balance straight from the
// Polygon chain, mirroring how the venue itself values collateral.
type BalanceReader struct {
	client *ethclient.Client
	token  common.Address
	funder common.Address
}

func NewBalanceReader(rpcURL, usdcAddress, funderAddress string) (*BalanceReader, error) {
	if !common.IsHexAddress(usdcAddress) {
		return nil, fmt.Errorf("invalid USDC address %q", usdcAddress)
	}
	if !common.IsHexAddress(funderAddress) {
		return nil, fmt.Errorf("invalid funder address %q", funderAddress)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial polygon rpc: %w", err)
	}

	return &BalanceReader{
		client: client,
		token:  common.HexToAddress(usdcAddress),
		funder: common.HexToAddress(funderAddress),
	}, nil
}

// GetUSDCBalance returns the funder's USDC balance in whole dollars.
func (b *BalanceReader) GetUSDCBalance(ctx context.Context) (decimal.Decimal, error) {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(b.funder.Bytes(), 32)...)

	out, err := b.client.CallContract(ctx, ethereum.CallMsg{To: &b.token, Data: data}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balanceOf call: %w", err)
	}
	if len(out) == 0 {
		return decimal.Zero, fmt.Errorf("balanceOf returned no data")
	}

	raw := new(big.Int).SetBytes(out)
	return decimal.NewFromBigInt(raw, -usdcDecimals), nil
}

func (b *BalanceReader) Close() {
	b.client.Close()
}

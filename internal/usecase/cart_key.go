package usecase

import (
	"encoding/hex"
	"strconv"

	"github.com/ShevArtV/miniShop2/internal/domain/model"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
)

const keySize = 16

// 明細のKeyを導出する。
// 同じ商品でも単価・重量・オプションが違えば別の明細になる。
func DeriveKey(productID int64, price, weight decimal.Decimal, options model.Options) (string, error) {
	opts, err := options.Canonical()
	if err != nil {
		return "", err
	}
	h, _ := blake2b.New(keySize, nil)

	h.Write([]byte(strconv.FormatInt(productID, 10)))
	h.Write([]byte{0})
	h.Write([]byte(price.String()))
	h.Write([]byte{0})
	h.Write([]byte(weight.String()))
	h.Write([]byte{0})
	h.Write(opts)

	return hex.EncodeToString(h.Sum(nil)), nil
}

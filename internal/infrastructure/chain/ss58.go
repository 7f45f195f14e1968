package chain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	PolkadotPrefix  uint16 = 0
	KusamaPrefix    uint16 = 2
	SubstratePrefix uint16 = 42

	checksumLen = 2
)

var (
	ErrInvalidAddress = errors.New("invalid ss58 address")

	ss58Pre = []byte("SS58PRE")
)

// Address - разобранный SS58 адрес
type Address struct {
	Prefix    uint16
	AccountId []byte
}

// ValidateAddress проверяет кодировку, длину и контрольную сумму SS58 адреса
func ValidateAddress(address string) error {
	_, err := DecodeAddress(address)
	return err
}

func DecodeAddress(address string) (*Address, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	data := base58.Decode(address)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: not base58", ErrInvalidAddress)
	}

	prefix, prefixLen, err := decodePrefix(data)
	if err != nil {
		return nil, err
	}

	// 32 байта - sr25519/ed25519 ключ, 33 - сжатый ecdsa ключ
	payloadLen := len(data) - prefixLen - checksumLen
	if payloadLen != 32 && payloadLen != 33 {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(data))
	}

	body := data[:len(data)-checksumLen]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLen], data[len(data)-checksumLen:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	return &Address{
		Prefix:    prefix,
		AccountId: append([]byte(nil), data[prefixLen:len(data)-checksumLen]...),
	}, nil
}

// EncodeAddress кодирует публичный ключ в SS58 с заданным сетевым префиксом
func EncodeAddress(prefix uint16, accountId []byte) (string, error) {
	if prefix > 16383 {
		return "", fmt.Errorf("%w: prefix %d out of range", ErrInvalidAddress, prefix)
	}
	if len(accountId) != 32 && len(accountId) != 33 {
		return "", fmt.Errorf("%w: account id length %d", ErrInvalidAddress, len(accountId))
	}

	var data []byte
	if prefix < 64 {
		data = append(data, byte(prefix))
	} else {
		first := byte((prefix&0x00fc)>>2) | 0x40
		second := byte(prefix>>8) | byte((prefix&0x0003)<<6)
		data = append(data, first, second)
	}
	data = append(data, accountId...)
	sum := checksum(data)
	data = append(data, sum[:checksumLen]...)
	return base58.Encode(data), nil
}

func decodePrefix(data []byte) (uint16, int, error) {
	switch {
	case data[0] < 64:
		return uint16(data[0]), 1, nil
	case data[0] < 128:
		if len(data) < 2 {
			return 0, 0, fmt.Errorf("%w: truncated prefix", ErrInvalidAddress)
		}
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0x3f
		return uint16(lower) | uint16(upper)<<8, 2, nil
	default:
		return 0, 0, fmt.Errorf("%w: reserved prefix", ErrInvalidAddress)
	}
}

func checksum(body []byte) [blake2b.Size]byte {
	return blake2b.Sum512(append(append([]byte(nil), ss58Pre...), body...))
}

package registry

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/provenance-io/p8e-publisher/codec"
	"github.com/provenance-io/p8e-publisher/interfaces"
)

// MsgWriteContractSpecificationTypeURL is the type URL of a contract specification registration.
const MsgWriteContractSpecificationTypeURL = "/provenance.metadata.v1.MsgWriteContractSpecificationRequest"

// SignModeDirect signs the body and auth info bytes as sent.
const SignModeDirect = "SIGN_MODE_DIRECT"

// TxBody carries the messages of a transaction.
type TxBody struct {
	Messages []interfaces.Message `cbor:"messages"`
	Memo     string               `cbor:"memo"`
}

// SignerInfo identifies a signer and the sequence it signs at.
type SignerInfo struct {
	PublicKey []byte `cbor:"public_key"`
	Mode      string `cbor:"mode"`
	Sequence  uint64 `cbor:"sequence"`
}

// Fee is the fee paid and the gas limit granted.
type Fee struct {
	Amount   []interfaces.Coin `cbor:"amount"`
	GasLimit uint64            `cbor:"gas_limit"`
}

// AuthInfo holds signer and fee information.
type AuthInfo struct {
	SignerInfos []SignerInfo `cbor:"signer_infos"`
	Fee         Fee          `cbor:"fee"`
}

// TxRaw is the broadcast form of a transaction. Body and auth info are kept
// as bytes so signatures cover exactly what is sent.
type TxRaw struct {
	BodyBytes     []byte   `cbor:"body_bytes"`
	AuthInfoBytes []byte   `cbor:"auth_info_bytes"`
	Signatures    [][]byte `cbor:"signatures"`
}

// SignDoc is what each signer signs.
type SignDoc struct {
	BodyBytes     []byte `cbor:"body_bytes"`
	AuthInfoBytes []byte `cbor:"auth_info_bytes"`
	ChainID       string `cbor:"chain_id"`
	AccountNumber uint64 `cbor:"account_number"`
}

// Digest returns sha256 of the deterministic encoding of the sign doc.
func (d SignDoc) Digest() ([]byte, error) {
	encoded, err := codec.Marshal(d)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(encoded)
	return sum[:], nil
}

// Encode returns the deterministic encoding of the transaction.
func (tx TxRaw) Encode() ([]byte, error) {
	return codec.Marshal(tx)
}

// DecodeTx parses an encoded transaction and its body and auth info.
func DecodeTx(txBytes []byte) (*TxRaw, *TxBody, *AuthInfo, error) {
	var raw TxRaw
	if err := codec.Unmarshal(txBytes, &raw); err != nil {
		return nil, nil, nil, fmt.Errorf("decoding tx: %w", err)
	}
	var body TxBody
	if err := codec.Unmarshal(raw.BodyBytes, &body); err != nil {
		return nil, nil, nil, fmt.Errorf("decoding tx body: %w", err)
	}
	var authInfo AuthInfo
	if err := codec.Unmarshal(raw.AuthInfoBytes, &authInfo); err != nil {
		return nil, nil, nil, fmt.Errorf("decoding auth info: %w", err)
	}
	return &raw, &body, &authInfo, nil
}

// MsgWriteContractSpecification registers one contract specification.
type MsgWriteContractSpecification struct {
	Specification interfaces.ContractSpecification `cbor:"specification"`
	Signers       []string                         `cbor:"signers"`
}

// ContractSpecificationMessages encodes one registration message per
// specification, in order, all signed by signer.
func ContractSpecificationMessages(specs []interfaces.ContractSpecification, signer string) ([]interfaces.Message, error) {
	if len(specs) == 0 {
		return nil, interfaces.ErrEmptyContractSet
	}
	if signer == "" {
		return nil, errors.New("registration messages need a signer address")
	}

	messages := make([]interfaces.Message, 0, len(specs))
	for _, spec := range specs {
		value, err := codec.Marshal(MsgWriteContractSpecification{
			Specification: spec,
			Signers:       []string{signer},
		})
		if err != nil {
			return nil, fmt.Errorf("encoding specification %s: %w", spec.ClassName, err)
		}
		messages = append(messages, interfaces.Message{
			TypeURL: MsgWriteContractSpecificationTypeURL,
			Value:   value,
		})
	}
	return messages, nil
}

// DecodeContractSpecificationMessage parses a registration message.
func DecodeContractSpecificationMessage(msg interfaces.Message) (*MsgWriteContractSpecification, error) {
	if msg.TypeURL != MsgWriteContractSpecificationTypeURL {
		return nil, fmt.Errorf("unexpected message type %s", msg.TypeURL)
	}
	var out MsgWriteContractSpecification
	if err := codec.Unmarshal(msg.Value, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func codecMarshal(v interface{}, what string) ([]byte, error) {
	b, err := codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", what, err)
	}
	return b, nil
}

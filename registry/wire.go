package registry

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	"github.com/provenance-io/p8e-publisher/interfaces"
	"google.golang.org/protobuf/types/known/structpb"
)

// BroadcastModeBlock waits for block inclusion before answering.
const BroadcastModeBlock = "BROADCAST_MODE_BLOCK"

func encodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func encodeUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func field(s *structpb.Struct, name string) *structpb.Value {
	if s == nil {
		return nil
	}
	return s.GetFields()[name]
}

func stringField(s *structpb.Struct, name string) string {
	return field(s, name).GetStringValue()
}

func structField(s *structpb.Struct, name string) *structpb.Struct {
	return field(s, name).GetStructValue()
}

func bytesField(s *structpb.Struct, name string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(stringField(s, name))
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return b, nil
}

// uintField accepts decimal strings and JSON numbers.
func uintField(s *structpb.Struct, name string) (uint64, error) {
	v := field(s, name)
	switch kind := v.GetKind().(type) {
	case nil:
		return 0, nil
	case *structpb.Value_StringValue:
		if kind.StringValue == "" {
			return 0, nil
		}
		n, err := strconv.ParseUint(kind.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", name, err)
		}
		return n, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, fmt.Errorf("field %s: %v is not an unsigned integer", name, n)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("field %s: unexpected kind %T", name, kind)
	}
}

func encodeCoins(coins []interfaces.Coin) []interface{} {
	out := make([]interface{}, 0, len(coins))
	for _, c := range coins {
		out = append(out, map[string]interface{}{"denom": c.Denom, "amount": c.Amount})
	}
	return out
}

func decodeCoins(s *structpb.Struct, name string) []interfaces.Coin {
	values := field(s, name).GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}
	coins := make([]interfaces.Coin, 0, len(values))
	for _, v := range values {
		c := v.GetStructValue()
		coins = append(coins, interfaces.Coin{Denom: stringField(c, "denom"), Amount: stringField(c, "amount")})
	}
	return coins
}

// EncodeFeeRequest builds a CalculateTxFees request.
func EncodeFeeRequest(txBytes []byte, gasAdjustment float64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"tx_bytes":       encodeBytes(txBytes),
		"gas_adjustment": gasAdjustment,
	})
}

// DecodeFeeRequest parses a CalculateTxFees request.
func DecodeFeeRequest(s *structpb.Struct) ([]byte, float64, error) {
	txBytes, err := bytesField(s, "tx_bytes")
	if err != nil {
		return nil, 0, err
	}
	return txBytes, field(s, "gas_adjustment").GetNumberValue(), nil
}

// EncodeFeeEstimate builds a CalculateTxFees response.
func EncodeFeeEstimate(est *interfaces.FeeEstimate) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"estimated_gas":   encodeUint(est.EstimatedGas),
		"total_fees":      encodeCoins(est.TotalFees),
		"additional_fees": encodeCoins(est.AdditionalFees),
	})
}

// DecodeFeeEstimate parses a CalculateTxFees response.
func DecodeFeeEstimate(s *structpb.Struct) (*interfaces.FeeEstimate, error) {
	gas, err := uintField(s, "estimated_gas")
	if err != nil {
		return nil, err
	}
	return &interfaces.FeeEstimate{
		EstimatedGas:   gas,
		TotalFees:      decodeCoins(s, "total_fees"),
		AdditionalFees: decodeCoins(s, "additional_fees"),
	}, nil
}

// EncodeBroadcastRequest builds a block-mode BroadcastTx request.
func EncodeBroadcastRequest(txBytes []byte) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"tx_bytes": encodeBytes(txBytes),
		"mode":     BroadcastModeBlock,
	})
}

// DecodeBroadcastRequest parses a BroadcastTx request.
func DecodeBroadcastRequest(s *structpb.Struct) ([]byte, string, error) {
	txBytes, err := bytesField(s, "tx_bytes")
	if err != nil {
		return nil, "", err
	}
	return txBytes, stringField(s, "mode"), nil
}

// EncodeBroadcastResponse builds a BroadcastTx response.
func EncodeBroadcastResponse(resp *interfaces.BroadcastResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"tx_response": map[string]interface{}{
			"code":     float64(resp.Code),
			"raw_log":  resp.RawLog,
			"txhash":   resp.TxHash,
			"height":   strconv.FormatInt(resp.Height, 10),
			"gas_used": encodeUint(resp.GasUsed),
		},
	})
}

// DecodeBroadcastResponse parses a BroadcastTx response.
func DecodeBroadcastResponse(s *structpb.Struct) (*interfaces.BroadcastResponse, error) {
	tx := structField(s, "tx_response")
	if tx == nil {
		return nil, fmt.Errorf("broadcast response has no tx_response")
	}
	code, err := uintField(tx, "code")
	if err != nil {
		return nil, err
	}
	if code > math.MaxUint32 {
		return nil, fmt.Errorf("field code: %d out of range", code)
	}
	height, err := uintField(tx, "height")
	if err != nil {
		return nil, err
	}
	if height > math.MaxInt64 {
		return nil, fmt.Errorf("field height: %d out of range", height)
	}
	gasUsed, err := uintField(tx, "gas_used")
	if err != nil {
		return nil, err
	}
	return &interfaces.BroadcastResponse{
		Code:    uint32(code),
		RawLog:  stringField(tx, "raw_log"),
		TxHash:  stringField(tx, "txhash"),
		Height:  int64(height),
		GasUsed: gasUsed,
	}, nil
}

// EncodeAccountRequest builds an Account request.
func EncodeAccountRequest(address string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"address": address})
}

// EncodeAccountResponse builds an Account response.
func EncodeAccountResponse(info *interfaces.AccountInfo) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"account": map[string]interface{}{
			"address":        info.Address,
			"account_number": encodeUint(info.AccountNumber),
			"sequence":       encodeUint(info.Sequence),
		},
	})
}

// DecodeAccountResponse parses an Account response.
func DecodeAccountResponse(s *structpb.Struct) (*interfaces.AccountInfo, error) {
	account := structField(s, "account")
	if account == nil {
		return nil, fmt.Errorf("account response has no account")
	}
	number, err := uintField(account, "account_number")
	if err != nil {
		return nil, err
	}
	sequence, err := uintField(account, "sequence")
	if err != nil {
		return nil, err
	}
	return &interfaces.AccountInfo{
		Address:       stringField(account, "address"),
		AccountNumber: number,
		Sequence:      sequence,
	}, nil
}

// EncodeSpecificationRequest builds a scope or contract specification query.
func EncodeSpecificationRequest(id string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"specification_id": id})
}

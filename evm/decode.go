package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DecodeError reports contract output that does not have the shape the
// typed record expects. It is returned instead of a partially filled record.
type DecodeError struct {
	Method string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Method, e.Reason)
}

// convertTuple copies a single unpacked tuple into dst (a pointer to a
// record whose field order matches the tuple). ConvertType panics on a
// mismatch, so the panic is turned into a DecodeError.
func convertTuple(method string, out []interface{}, dst interface{}) (err error) {
	if len(out) != 1 {
		return &DecodeError{Method: method, Reason: fmt.Sprintf("expected 1 output, got %d", len(out))}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &DecodeError{Method: method, Reason: fmt.Sprint(r)}
		}
	}()
	abi.ConvertType(out[0], dst)
	return nil
}

// copyOutputs copies a multi-value result into a struct using its abi tags.
func copyOutputs(method string, args abi.Arguments, out []interface{}, dst interface{}) error {
	if len(out) != len(args) {
		return &DecodeError{Method: method, Reason: fmt.Sprintf("expected %d outputs, got %d", len(args), len(out))}
	}
	if err := args.Copy(dst, out); err != nil {
		return &DecodeError{Method: method, Reason: err.Error()}
	}
	return nil
}

// DecodeCampaign accepts either the single-tuple form returned by the
// deployed ABI or the positional ten-value form some ABI versions emit.
func DecodeCampaign(out []interface{}) (CampaignRecord, error) {
	const method = "getCampaign"
	var rec CampaignRecord
	switch len(out) {
	case 1:
		if err := convertTuple(method, out, &rec); err != nil {
			return CampaignRecord{}, err
		}
	case 10:
		p := positional{method: method, out: out}
		rec = CampaignRecord{
			Brand:            p.address(0),
			Requirements:     p.str(1),
			PaymentPerPost:   p.bigInt(2),
			Deadline:         p.bigInt(3),
			MaxPosts:         p.bigInt(4),
			CurrentPosts:     p.bigInt(5),
			MinFollowers:     p.bigInt(6),
			Status:           p.uint8(7),
			CreatedAt:        p.bigInt(8),
			RequiredHashtags: p.strings(9),
		}
		if p.err != nil {
			return CampaignRecord{}, p.err
		}
	default:
		return CampaignRecord{}, &DecodeError{Method: method, Reason: fmt.Sprintf("unexpected output count %d", len(out))}
	}
	if err := requireBigInts(method, rec.PaymentPerPost, rec.Deadline, rec.MaxPosts, rec.CurrentPosts, rec.MinFollowers, rec.CreatedAt); err != nil {
		return CampaignRecord{}, err
	}
	return rec, nil
}

func requireBigInts(method string, vals ...*big.Int) error {
	for i, v := range vals {
		if v == nil {
			return &DecodeError{Method: method, Reason: fmt.Sprintf("missing numeric field %d", i)}
		}
	}
	return nil
}

// positional reads typed values out of an unpacked output slice and keeps
// the first mismatch.
type positional struct {
	method string
	out    []interface{}
	err    error
}

func (p *positional) fail(i int, want string) {
	if p.err == nil {
		p.err = &DecodeError{Method: p.method, Reason: fmt.Sprintf("output %d: expected %s, got %T", i, want, p.out[i])}
	}
}

func (p *positional) address(i int) common.Address {
	v, ok := p.out[i].(common.Address)
	if !ok {
		p.fail(i, "address")
	}
	return v
}

func (p *positional) str(i int) string {
	v, ok := p.out[i].(string)
	if !ok {
		p.fail(i, "string")
	}
	return v
}

func (p *positional) strings(i int) []string {
	v, ok := p.out[i].([]string)
	if !ok {
		p.fail(i, "string[]")
	}
	return v
}

func (p *positional) bigInt(i int) *big.Int {
	v, ok := p.out[i].(*big.Int)
	if !ok {
		p.fail(i, "uint256")
	}
	return v
}

func (p *positional) uint8(i int) uint8 {
	v, ok := p.out[i].(uint8)
	if !ok {
		p.fail(i, "uint8")
	}
	return v
}

func decodeBigInt(method string, out []interface{}) (*big.Int, error) {
	if len(out) != 1 {
		return nil, &DecodeError{Method: method, Reason: fmt.Sprintf("expected 1 output, got %d", len(out))}
	}
	v, ok := out[0].(*big.Int)
	if !ok || v == nil {
		return nil, &DecodeError{Method: method, Reason: fmt.Sprintf("expected uint256, got %T", out[0])}
	}
	return v, nil
}

func decodeBigInts(method string, out []interface{}) ([]*big.Int, error) {
	if len(out) != 1 {
		return nil, &DecodeError{Method: method, Reason: fmt.Sprintf("expected 1 output, got %d", len(out))}
	}
	v, ok := out[0].([]*big.Int)
	if !ok {
		return nil, &DecodeError{Method: method, Reason: fmt.Sprintf("expected uint256[], got %T", out[0])}
	}
	return v, nil
}

func decodeUint8(method string, out []interface{}) (uint8, error) {
	if len(out) != 1 {
		return 0, &DecodeError{Method: method, Reason: fmt.Sprintf("expected 1 output, got %d", len(out))}
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, &DecodeError{Method: method, Reason: fmt.Sprintf("expected uint8, got %T", out[0])}
	}
	return v, nil
}

func decodeBool(method string, out []interface{}) (bool, error) {
	if len(out) != 1 {
		return false, &DecodeError{Method: method, Reason: fmt.Sprintf("expected 1 output, got %d", len(out))}
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, &DecodeError{Method: method, Reason: fmt.Sprintf("expected bool, got %T", out[0])}
	}
	return v, nil
}

func decodeAddress(method string, out []interface{}) (common.Address, error) {
	if len(out) != 1 {
		return common.Address{}, &DecodeError{Method: method, Reason: fmt.Sprintf("expected 1 output, got %d", len(out))}
	}
	v, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, &DecodeError{Method: method, Reason: fmt.Sprintf("expected address, got %T", out[0])}
	}
	return v, nil
}

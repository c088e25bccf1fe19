package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/brojonat/influencechain/internal/metrics"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

// ContractCaller is the slice of ethclient.Client used for reads.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader is every contract read the service performs. Handlers and
// activities depend on this rather than on *Client so they can be tested
// with MockReader.
type Reader interface {
	CampaignCounter(ctx context.Context) (uint64, error)
	GetCampaign(ctx context.Context, id uint64) (CampaignRecord, error)
	GetCampaignSubmissions(ctx context.Context, id uint64) ([]*big.Int, error)
	GetSubmission(ctx context.Context, id uint64) (SubmissionRecord, error)
	GetBrandCampaigns(ctx context.Context, brand common.Address) ([]*big.Int, error)
	GetCreatorSubmissions(ctx context.Context, creator common.Address) ([]*big.Int, error)
	UserType(ctx context.Context, addr common.Address) (UserType, error)
	GetBrand(ctx context.Context, addr common.Address) (BrandRecord, error)
	GetCreator(ctx context.Context, addr common.Address) (CreatorRecord, error)
	GetTotalUsers(ctx context.Context) (UserTotals, error)
	GetPlatformConfig(ctx context.Context) (PlatformConfig, error)
	GetContractAddresses(ctx context.Context) (ContractSet, error)
	GetCampaignDeposit(ctx context.Context, id uint64) (DepositRecord, error)
	GetVerification(ctx context.Context, submissionID uint64) (VerificationRecord, error)
	PYUSDBalance(ctx context.Context, owner common.Address) (*PYUSDAmount, error)
}

// Config configures a Client.
type Config struct {
	RPCEndpoint string
	ChainID     int64
	Addresses   Addresses
	// CallTimeout bounds each eth_call. Zero disables the bound.
	CallTimeout time.Duration
	// RequestsPerSecond throttles eth_call across the process. Zero
	// disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// Client performs typed, read-only contract calls against one network.
type Client struct {
	caller  ContractCaller
	cfg     Config
	limiter *rate.Limiter
}

var _ Reader = (*Client)(nil)

// NewClient wraps an existing caller. Most callers want Dial.
func NewClient(caller ContractCaller, cfg Config) *Client {
	c := &Client{caller: caller, cfg: cfg}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// Dial connects to cfg.RPCEndpoint and verifies the chain id when one is
// configured. The returned close func releases the connection.
func Dial(ctx context.Context, cfg Config) (*Client, func(), error) {
	if cfg.RPCEndpoint == "" {
		return nil, nil, fmt.Errorf("rpc endpoint not set")
	}
	ec, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial rpc endpoint %s: %w", cfg.RPCEndpoint, err)
	}
	if cfg.ChainID != 0 {
		id, err := ec.ChainID(ctx)
		if err != nil {
			ec.Close()
			return nil, nil, fmt.Errorf("failed to read chain id from %s: %w", cfg.RPCEndpoint, err)
		}
		if id.Int64() != cfg.ChainID {
			ec.Close()
			return nil, nil, fmt.Errorf("rpc endpoint %s serves chain %s, want %d", cfg.RPCEndpoint, id, cfg.ChainID)
		}
	}
	return NewClient(ec, cfg), ec.Close, nil
}

// Addresses returns the contract set this client reads from.
func (c *Client) Addresses() Addresses {
	return c.cfg.Addresses
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() int64 {
	return c.cfg.ChainID
}

// call packs, executes and unpacks a single view call.
func (c *Client) call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait for %s: %w", method, err)
		}
	}
	if c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}
	res, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		metrics.RecordChainCall(method, "error")
		return nil, fmt.Errorf("eth_call %s on %s: %w", method, contract.Hex(), err)
	}
	out, err := parsed.Unpack(method, res)
	if err != nil {
		metrics.RecordChainCall(method, "decode_error")
		return nil, &DecodeError{Method: method, Reason: err.Error()}
	}
	metrics.RecordChainCall(method, "ok")
	return out, nil
}

func (c *Client) CampaignCounter(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, c.cfg.Addresses.CampaignManager, CampaignManagerABI, "campaignCounter")
	if err != nil {
		return 0, err
	}
	n, err := decodeBigInt("campaignCounter", out)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, &DecodeError{Method: "campaignCounter", Reason: "counter overflows uint64"}
	}
	return n.Uint64(), nil
}

func (c *Client) GetCampaign(ctx context.Context, id uint64) (CampaignRecord, error) {
	out, err := c.call(ctx, c.cfg.Addresses.CampaignManager, CampaignManagerABI, "getCampaign", new(big.Int).SetUint64(id))
	if err != nil {
		return CampaignRecord{}, err
	}
	return DecodeCampaign(out)
}

func (c *Client) GetCampaignSubmissions(ctx context.Context, id uint64) ([]*big.Int, error) {
	out, err := c.call(ctx, c.cfg.Addresses.CampaignManager, CampaignManagerABI, "getCampaignSubmissions", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	return decodeBigInts("getCampaignSubmissions", out)
}

func (c *Client) GetSubmission(ctx context.Context, id uint64) (SubmissionRecord, error) {
	out, err := c.call(ctx, c.cfg.Addresses.CampaignManager, CampaignManagerABI, "getSubmission", new(big.Int).SetUint64(id))
	if err != nil {
		return SubmissionRecord{}, err
	}
	var rec SubmissionRecord
	if err := convertTuple("getSubmission", out, &rec); err != nil {
		return SubmissionRecord{}, err
	}
	return rec, nil
}

func (c *Client) GetBrandCampaigns(ctx context.Context, brand common.Address) ([]*big.Int, error) {
	out, err := c.call(ctx, c.cfg.Addresses.CampaignManager, CampaignManagerABI, "getBrandCampaigns", brand)
	if err != nil {
		return nil, err
	}
	return decodeBigInts("getBrandCampaigns", out)
}

func (c *Client) GetCreatorSubmissions(ctx context.Context, creator common.Address) ([]*big.Int, error) {
	out, err := c.call(ctx, c.cfg.Addresses.CampaignManager, CampaignManagerABI, "getCreatorSubmissions", creator)
	if err != nil {
		return nil, err
	}
	return decodeBigInts("getCreatorSubmissions", out)
}

func (c *Client) UserType(ctx context.Context, addr common.Address) (UserType, error) {
	out, err := c.call(ctx, c.cfg.Addresses.UserRegistry, UserRegistryABI, "userTypes", addr)
	if err != nil {
		return UserTypeNone, err
	}
	v, err := decodeUint8("userTypes", out)
	if err != nil {
		return UserTypeNone, err
	}
	return UserType(v), nil
}

// IsRegisteredBrand is not part of Reader; the CLI uses it for quick checks.
func (c *Client) IsRegisteredBrand(ctx context.Context, addr common.Address) (bool, error) {
	out, err := c.call(ctx, c.cfg.Addresses.UserRegistry, UserRegistryABI, "isRegisteredBrand", addr)
	if err != nil {
		return false, err
	}
	return decodeBool("isRegisteredBrand", out)
}

func (c *Client) IsRegisteredCreator(ctx context.Context, addr common.Address) (bool, error) {
	out, err := c.call(ctx, c.cfg.Addresses.UserRegistry, UserRegistryABI, "isRegisteredCreator", addr)
	if err != nil {
		return false, err
	}
	return decodeBool("isRegisteredCreator", out)
}

func (c *Client) GetBrand(ctx context.Context, addr common.Address) (BrandRecord, error) {
	out, err := c.call(ctx, c.cfg.Addresses.UserRegistry, UserRegistryABI, "getBrand", addr)
	if err != nil {
		return BrandRecord{}, err
	}
	var rec BrandRecord
	if err := convertTuple("getBrand", out, &rec); err != nil {
		return BrandRecord{}, err
	}
	return rec, nil
}

func (c *Client) GetCreator(ctx context.Context, addr common.Address) (CreatorRecord, error) {
	out, err := c.call(ctx, c.cfg.Addresses.UserRegistry, UserRegistryABI, "getCreator", addr)
	if err != nil {
		return CreatorRecord{}, err
	}
	var rec CreatorRecord
	if err := convertTuple("getCreator", out, &rec); err != nil {
		return CreatorRecord{}, err
	}
	return rec, nil
}

func (c *Client) GetTotalUsers(ctx context.Context) (UserTotals, error) {
	out, err := c.call(ctx, c.cfg.Addresses.UserRegistry, UserRegistryABI, "getTotalUsers")
	if err != nil {
		return UserTotals{}, err
	}
	var totals UserTotals
	if err := copyOutputs("getTotalUsers", UserRegistryABI.Methods["getTotalUsers"].Outputs, out, &totals); err != nil {
		return UserTotals{}, err
	}
	return totals, nil
}

func (c *Client) GetPlatformConfig(ctx context.Context) (PlatformConfig, error) {
	out, err := c.call(ctx, c.cfg.Addresses.PlatformCore, PlatformCoreABI, "getPlatformConfig")
	if err != nil {
		return PlatformConfig{}, err
	}
	var pc PlatformConfig
	if err := copyOutputs("getPlatformConfig", PlatformCoreABI.Methods["getPlatformConfig"].Outputs, out, &pc); err != nil {
		return PlatformConfig{}, err
	}
	return pc, nil
}

func (c *Client) GetContractAddresses(ctx context.Context) (ContractSet, error) {
	out, err := c.call(ctx, c.cfg.Addresses.PlatformCore, PlatformCoreABI, "getContractAddresses")
	if err != nil {
		return ContractSet{}, err
	}
	var cs ContractSet
	if err := copyOutputs("getContractAddresses", PlatformCoreABI.Methods["getContractAddresses"].Outputs, out, &cs); err != nil {
		return ContractSet{}, err
	}
	return cs, nil
}

func (c *Client) GetCampaignDeposit(ctx context.Context, id uint64) (DepositRecord, error) {
	out, err := c.call(ctx, c.cfg.Addresses.PaymentEscrow, PaymentEscrowABI, "campaignDeposits", new(big.Int).SetUint64(id))
	if err != nil {
		return DepositRecord{}, err
	}
	var dep DepositRecord
	if err := copyOutputs("campaignDeposits", PaymentEscrowABI.Methods["campaignDeposits"].Outputs, out, &dep); err != nil {
		return DepositRecord{}, err
	}
	return dep, nil
}

// EscrowToken reads the token the escrow holds deposits in.
func (c *Client) EscrowToken(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, c.cfg.Addresses.PaymentEscrow, PaymentEscrowABI, "pyusdToken")
	if err != nil {
		return common.Address{}, err
	}
	return decodeAddress("pyusdToken", out)
}

func (c *Client) GetVerification(ctx context.Context, submissionID uint64) (VerificationRecord, error) {
	out, err := c.call(ctx, c.cfg.Addresses.AIVerification, AIVerificationABI, "getVerification", new(big.Int).SetUint64(submissionID))
	if err != nil {
		return VerificationRecord{}, err
	}
	var rec VerificationRecord
	if err := convertTuple("getVerification", out, &rec); err != nil {
		return VerificationRecord{}, err
	}
	return rec, nil
}

func (c *Client) PYUSDBalance(ctx context.Context, owner common.Address) (*PYUSDAmount, error) {
	out, err := c.call(ctx, c.cfg.Addresses.PYUSD, ERC20ABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	v, err := decodeBigInt("balanceOf", out)
	if err != nil {
		return nil, err
	}
	return PYUSDFromBaseUnits(v), nil
}

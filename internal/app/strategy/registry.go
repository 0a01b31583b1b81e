package strategy

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dynavest/strategy-engine/internal/domain/entity"
)

// Contract role names within a protocol table.
const (
	RolePool       = "pool"
	RoleMorpho     = "morpho"
	RoleNFTManager = "nftManager"
	RoleSwapRouter = "swapRouter"
	RoleManager    = "manager"
)

// Contracts is the immutable chain id -> role -> address table of one
// protocol, loaded at process start.
type Contracts struct {
	Protocol string
	Chains   map[uint64]map[string]common.Address
}

// IsChainSupported reports whether the protocol is deployed on chainID.
func (c Contracts) IsChainSupported(chainID uint64) bool {
	_, ok := c.Chains[chainID]
	return ok
}

// Address returns the contract address for a role on a chain. The error
// names the protocol, chain and role: a missing role on a supported
// chain is a misconfiguration that has to be traceable from logs alone.
func (c Contracts) Address(chainID uint64, role string) (common.Address, error) {
	roles, ok := c.Chains[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("%s: chain %d: %w", c.Protocol, chainID, entity.ErrUnsupportedChain)
	}
	addr, ok := roles[role]
	if !ok {
		return common.Address{}, fmt.Errorf("%s: no %q contract on chain %d: %w", c.Protocol, role, chainID, entity.ErrContractNotFound)
	}
	return addr, nil
}

// Static protocol deployments. Chain ids: 1 Ethereum, 56 BSC,
// 137 Polygon, 8453 Base, 42161 Arbitrum, 42220 Celo, 84532 Base Sepolia.
var (
	AaveContracts = Contracts{
		Protocol: "Aave",
		Chains: map[uint64]map[string]common.Address{
			1:     {RolePool: common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")},
			137:   {RolePool: common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD")},
			8453:  {RolePool: common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5")},
			42161: {RolePool: common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD")},
			42220: {RolePool: common.HexToAddress("0x3E59A31363E2ad014dcbc521c4a0d5757d9f3402")},
		},
	}

	MorphoContracts = Contracts{
		Protocol: "Morpho",
		Chains: map[uint64]map[string]common.Address{
			8453:  {RoleMorpho: common.HexToAddress("0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb")},
			84532: {RoleMorpho: common.HexToAddress("0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb")},
		},
	}

	UniswapContracts = Contracts{
		Protocol: "Uniswap",
		Chains: map[uint64]map[string]common.Address{
			1: {
				RoleNFTManager: common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88"),
				RoleSwapRouter: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
			},
			56: {
				RoleNFTManager: common.HexToAddress("0x7b8A01B39D58278b5DE7e48c8449c9f4F5170613"),
				RoleSwapRouter: common.HexToAddress("0xB971eF87ede563556b2ED4b1C0b0019111Dd85d2"),
			},
			137: {
				RoleNFTManager: common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88"),
				RoleSwapRouter: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
			},
			8453: {
				RoleNFTManager: common.HexToAddress("0x03a520b32C04BF3bEEf7BEb72E919cf822Ed34f1"),
				RoleSwapRouter: common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481"),
			},
			42161: {
				RoleNFTManager: common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88"),
				RoleSwapRouter: common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"),
			},
		},
	}

	StCeloContracts = Contracts{
		Protocol: "stCelo",
		Chains: map[uint64]map[string]common.Address{
			42220: {RoleManager: common.HexToAddress("0x0239b96D10a434a56CC9E09383077A0490cF9398")},
		},
	}
)

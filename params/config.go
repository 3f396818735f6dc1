package params

import (
	"crypto/ecdsa"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/node"
)

//TokenAddress the YUM ERC20 token
var TokenAddress = common.HexToAddress("0x2f32b39023dA7d6A6486A85d12B346EB9C2A0D19")

//VaultAddress the vYUM vault (staking) contract, also the spender of every approve
var VaultAddress = common.HexToAddress("0x91c7d2a9E3a7031D98cCda2F9f1e63327e67F9cC")

//VaultLaunchTime when the vault started accruing, used for the lifetime APY derivation
var VaultLaunchTime = time.Unix(1718236800, 0)

//APIPort listening requests from the dashboard frontend
var APIPort = 7160

//PriceAPIURL base url of the market data api
var PriceAPIURL = "https://pro-api.coingecko.com/api/v3"

//PriceAPIKey api key sent with every price request
var PriceAPIKey = ""

//PriceCoinID coin identifier on the price api
var PriceCoinID = "yum"

//CurrentPricePollInterval how often the current price is refreshed
var CurrentPricePollInterval = 30 * time.Second

//PriceHistoryPollInterval how often the chart history is refreshed
var PriceHistoryPollInterval = 2 * time.Minute

//GasMarginPercent margin added over a simulated gas estimate when the
//caller supplies no explicit limit
var GasMarginPercent = int64(20)

//PrivKey used to sign transactions
var PrivKey *ecdsa.PrivateKey

//Address the connected account, zero while no wallet is unlocked
var Address common.Address

//DataDir where to store yumstake data
var DataDir string

//DataBasePath where the journal db is stored
var DataBasePath string

//DebugMode for debug setting
var DebugMode = false

//DefaultDataDir default work directory
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := homeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "yumstake")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "yumstake")
		} else {
			return filepath.Join(home, ".yumstake")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

//DefaultKeyStoreDir keystore path of ethereum
func DefaultKeyStoreDir() string {
	return filepath.Join(node.DefaultDataDir(), "keystore")
}

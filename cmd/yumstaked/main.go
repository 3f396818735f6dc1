package main

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/node"
	"github.com/labstack/gommon/log"
	"github.com/yumprotocol/yumstake-monitoring/chainservice"
	"github.com/yumprotocol/yumstake-monitoring/models"
	"github.com/yumprotocol/yumstake-monitoring/notify"
	"github.com/yumprotocol/yumstake-monitoring/params"
	"github.com/yumprotocol/yumstake-monitoring/pricefeed"
	restful "github.com/yumprotocol/yumstake-monitoring/rest"
	"github.com/yumprotocol/yumstake-monitoring/staking"
	cli "gopkg.in/urfave/cli.v1"
)

func main() {
	StartMain()
}

//StartMain entry point of the yumstake daemon
func StartMain() {
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "address",
			Usage: "The ethereum address used to sign staking transactions, omit for a read-only dashboard",
		},
		cli.StringFlag{
			Name:  "keystore-path",
			Usage: "If you have a non-standard path for the ethereum keystore directory provide it using this argument.",
			Value: params.DefaultKeyStoreDir(),
		},
		cli.StringFlag{
			Name:  "password-file",
			Usage: "Text file containing password for provided account",
		},
		cli.StringFlag{
			Name: "eth-rpc-endpoint",
			Usage: `"host:port" address of ethereum JSON-RPC server.
	           Also accepts a protocol prefix (ws:// or ipc channel) with optional port`,
			Value: node.DefaultIPCEndpoint("geth"),
		},
		cli.StringFlag{
			Name:  "token-address",
			Usage: "hex encoded address of the YUM token contract.",
			Value: params.TokenAddress.String(),
		},
		cli.StringFlag{
			Name:  "vault-address",
			Usage: "hex encoded address of the staking vault contract.",
			Value: params.VaultAddress.String(),
		},
		cli.IntFlag{
			Name:  "api-port",
			Usage: "port for the dashboard API server to listen on.",
			Value: params.APIPort,
		},
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Directory for storing yumstake data.",
			Value: params.DefaultDataDir(),
		},
		cli.StringFlag{
			Name:  "price-api",
			Usage: "base url of the market data api.",
			Value: params.PriceAPIURL,
		},
		cli.StringFlag{
			Name:  "price-api-key",
			Usage: "api key for the market data api.",
		},
		cli.StringFlag{
			Name:  "coin-id",
			Usage: "coin identifier on the market data api.",
			Value: params.PriceCoinID,
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
	app.Action = mainCtx
	app.Name = "yumstaked"
	app.Version = "0.1"
	err := app.Run(os.Args)
	if err != nil {
		log.Errorf("run err %s", err)
	}
}

func mainCtx(ctx *cli.Context) error {
	fmt.Printf("Welcome to yumstaked,version %s\n", ctx.App.Version)
	config(ctx)
	ethEndpoint := ctx.String("eth-rpc-endpoint")
	client, err := ethclient.Dial(ethEndpoint)
	if err != nil {
		log.Fatalf("cannot connect to geth :%s err=%s", ethEndpoint, err)
	}
	db, err := models.OpenDb(params.DataBasePath)
	if err != nil {
		log.Fatalf("open db err=%s", err)
	}
	cs, err := chainservice.NewChainService(client, params.PrivKey, params.TokenAddress, params.VaultAddress)
	if err != nil {
		log.Fatalf("chain service err=%s", err)
	}
	alerts := notify.NewManager(10, 8*time.Second)
	control := staking.NewController(cs, db, alerts)
	prices := pricefeed.NewClient(params.PriceAPIURL, params.PriceCoinID, params.PriceAPIKey)
	prices.Start()
	/*
		quit handler
	*/
	go func() {
		quitSignal := make(chan os.Signal, 1)
		signal.Notify(quitSignal, os.Interrupt, os.Kill)
		<-quitSignal
		signal.Stop(quitSignal)
		prices.Stop()
		alerts.Stop()
		db.CloseDB()
		os.Exit(0)
	}()
	restful.Start(db, control, prices, alerts)
	return nil
}

func config(ctx *cli.Context) {
	var err error
	params.APIPort = ctx.Int("api-port")
	params.TokenAddress = common.HexToAddress(ctx.String("token-address"))
	params.VaultAddress = common.HexToAddress(ctx.String("vault-address"))
	params.PriceAPIURL = ctx.String("price-api")
	params.PriceAPIKey = ctx.String("price-api-key")
	params.PriceCoinID = ctx.String("coin-id")
	params.DebugMode = ctx.Bool("debug")
	if params.DebugMode {
		log.SetLevel(log.DEBUG)
	}
	if ctx.String("address") != "" {
		address := common.HexToAddress(ctx.String("address"))
		params.PrivKey, err = unlockAccount(address, ctx.String("keystore-path"), ctx.String("password-file"))
		if err != nil {
			log.Fatalf("unlock account %s err=%s", address.String(), err)
		}
		params.Address = crypto.PubkeyToAddress(params.PrivKey.PublicKey)
	}
	dataDir := ctx.String("datadir")
	if len(dataDir) == 0 {
		dataDir = filepath.Join(homeDir(), ".yumstake")
	}
	params.DataDir = dataDir
	if !models.FileExists(params.DataDir) {
		err = os.MkdirAll(params.DataDir, os.ModePerm)
		if err != nil {
			log.Fatalf("Datadir:%s doesn't exist and cannot create %v", params.DataDir, err)
		}
	}
	userDbPath := "readonly"
	if params.Address != (common.Address{}) {
		userDbPath = hex.EncodeToString(params.Address[:])[:8]
	}
	userDbPath = filepath.Join(params.DataDir, userDbPath)
	if !models.FileExists(userDbPath) {
		err = os.MkdirAll(userDbPath, os.ModePerm)
		if err != nil {
			log.Fatalf("Datadir:%s doesn't exist and cannot create %v", userDbPath, err)
		}
	}
	params.DataBasePath = filepath.Join(userDbPath, "journal.db")
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "."
}

//unlockAccount find the keystore file for address and decrypt it with the
//password from passwordFile
func unlockAccount(address common.Address, keystorePath, passwordFile string) (*ecdsa.PrivateKey, error) {
	keyFile, err := findKeyFile(address, keystorePath)
	if err != nil {
		return nil, err
	}
	keyJSON, err := ioutil.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	password, err := ioutil.ReadFile(passwordFile)
	if err != nil {
		return nil, fmt.Errorf("read password file: %s", err)
	}
	key, err := keystore.DecryptKey(keyJSON, strings.TrimSpace(string(password)))
	if err != nil {
		return nil, fmt.Errorf("decrypt key: %s", err)
	}
	return key.PrivateKey, nil
}

func findKeyFile(address common.Address, keystorePath string) (string, error) {
	files, err := ioutil.ReadDir(keystorePath)
	if err != nil {
		return "", fmt.Errorf("read keystore dir %s: %s", keystorePath, err)
	}
	needle := strings.ToLower(hex.EncodeToString(address[:]))
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if strings.Contains(strings.ToLower(f.Name()), needle) {
			return filepath.Join(keystorePath, f.Name()), nil
		}
	}
	return "", fmt.Errorf("no keystore file for %s in %s", address.String(), keystorePath)
}

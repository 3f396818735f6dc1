package chainservice

//ERC20ABI the subset of the token interface the service consumes
const ERC20ABI = `[
  {"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

//VaultABI the vYUM vault interface: deposits, cooldown requests and
//the reads backing the info panel
const VaultABI = `[
  {"inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"}],"name":"deposit","outputs":[{"name":"shares","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"shares","type":"uint256"}],"name":"requestRedeem","outputs":[{"name":"id","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"id","type":"uint256"}],"name":"cancelRequest","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"receiver","type":"address"},{"name":"owner","type":"address"},{"name":"id","type":"uint256"}],"name":"redeem","outputs":[{"name":"assets","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"account","type":"address"},{"name":"status","type":"uint8"}],"name":"fetchRequests","outputs":[{"components":[{"name":"id","type":"uint256"},{"name":"shares","type":"uint256"},{"name":"timeOfRequest","type":"uint256"},{"name":"status","type":"uint8"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"cooldownPeriod","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"shares","type":"uint256"}],"name":"convertToAssets","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"account","type":"address"}],"name":"getStakedAmount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

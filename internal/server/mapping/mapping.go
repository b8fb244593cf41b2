// Package mapping holds the fixed table of account codes and their display
// names. It is the only source of valid account codes.
package mapping

import "sort"

var accounts = map[string]string{
	"1243": "泰康资产XX年金",
	"1001": "平安保险养老金",
	"1002": "国寿投资专户",
	"1003": "太保资管组合",
	"1004": "新华保险投资户",
	"1005": "人保资产专项",
	"1006": "太平养老组合",
	"1007": "华泰资产产品",
	"1008": "安邦保险投资",
}

type Entry struct {
	Code string `json:"account_code"`
	Name string `json:"account_name"`
}

// Lookup returns the display name for code.
func Lookup(code string) (string, bool) {
	name, ok := accounts[code]
	return name, ok
}

// Entries lists the table sorted by code.
func Entries() []Entry {
	out := make([]Entry, 0, len(accounts))
	for code, name := range accounts {
		out = append(out, Entry{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

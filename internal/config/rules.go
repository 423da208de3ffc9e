package config

import "github.com/bianoble/modsync/internal/hostrules"

// Rules resolves the configured host rules into credential rules. TokenEnv
// values are read through lookup; rules that end up without a token are
// dropped.
func (c *Config) Rules(lookup func(string) (string, bool)) []hostrules.Rule {
	var rules []hostrules.Rule
	for _, hr := range c.HostRules {
		token := hr.Token
		if token == "" && hr.TokenEnv != "" && lookup != nil {
			token, _ = lookup(hr.TokenEnv)
		}
		if token == "" {
			continue
		}
		rules = append(rules, hostrules.Rule{
			HostType: hr.HostType,
			BaseURL:  hr.BaseURL,
			Token:    token,
		})
	}
	return rules
}

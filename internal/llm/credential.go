package llm

import "fmt"

// PreferredKeyEnv is checked before any provider specific variable.
const PreferredKeyEnv = "MANUS_API_KEY"

// FallbackKeyEnv maps a provider to the variable checked when PreferredKeyEnv is unset.
var FallbackKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Credential is a resolved API key and where it came from.
type Credential struct {
	Key    string
	Source string
}

// CredentialError reports that no API key could be resolved.
type CredentialError struct {
	Provider string
	Tried    []string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("API key not found for provider %s: set %s", e.Provider, joinOr(e.Tried))
}

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(string) (string, bool)

// ResolveCredential finds the API key for provider using lookup. It has no
// side effects and reads nothing but lookup.
func ResolveCredential(lookup LookupFunc, provider string) (Credential, error) {
	tried := []string{PreferredKeyEnv}
	if fb, ok := FallbackKeyEnv[provider]; ok {
		tried = append(tried, fb)
	}
	for _, name := range tried {
		if v, ok := lookup(name); ok && v != "" {
			return Credential{Key: v, Source: name}, nil
		}
	}
	return Credential{}, &CredentialError{Provider: provider, Tried: tried}
}

func joinOr(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1 : len(names)-1] {
		out += ", " + n
	}
	return out + " or " + names[len(names)-1]
}

// MapLookup serves variables from a fixed map, such as a parsed .env file.
func MapLookup(vars map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// ChainLookup asks each lookup in turn and returns the first non-empty value.
func ChainLookup(lookups ...LookupFunc) LookupFunc {
	return func(name string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l(name); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

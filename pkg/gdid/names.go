package gdid

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// MaxNameLength scope/sequence 名称最大长度
const MaxNameLength = 80

// CheckName 校验 scope/sequence 名称
// 规则: 1-80 个字符，字母数字以及 _ . -，分隔符不能出现在首尾
func CheckName(kind, name string) error {
	if name == "" {
		return errors.Wrapf(ErrInvalidName, "%s name is empty", kind)
	}
	if len(name) > MaxNameLength {
		return errors.Wrapf(ErrInvalidName, "%s name exceeds %d chars", kind, MaxNameLength)
	}

	last := len(name) - 1
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_' || c == '.' || c == '-':
			if i == 0 || i == last {
				return errors.Wrapf(ErrInvalidName, "%s name %q starts or ends with %q", kind, name, c)
			}
		default:
			return errors.Wrapf(ErrInvalidName, "%s name %q contains invalid char %q", kind, name, c)
		}
	}
	return nil
}

// NormalizeScope scope 统一转为大写
func NormalizeScope(scope string) string {
	return strings.ToUpper(scope)
}

// NormalizeSequence sequence 统一转为小写
func NormalizeSequence(sequence string) string {
	return strings.ToLower(sequence)
}

// CheckAndNormalize 校验并规范化 (scope, sequence)
func CheckAndNormalize(scope, sequence string) (string, string, error) {
	if err := CheckName("scope", scope); err != nil {
		return "", "", err
	}
	if err := CheckName("sequence", sequence); err != nil {
		return "", "", err
	}
	return NormalizeScope(scope), NormalizeSequence(sequence), nil
}

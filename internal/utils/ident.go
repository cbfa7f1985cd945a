package utils

import "github.com/samber/lo"

// reservedWords C/C++ 关键字，生成的枚举成员和函数名不能与之冲突
var reservedWords = []string{
	// C
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if",
	"inline", "int", "long", "register", "restrict", "return", "short",
	"signed", "sizeof", "static", "struct", "switch", "typedef", "union",
	"unsigned", "void", "volatile", "while",
	// C++
	"bool", "catch", "class", "delete", "false", "friend", "namespace",
	"new", "nullptr", "operator", "private", "protected", "public",
	"template", "this", "throw", "true", "try", "typename", "using",
	"virtual",
}

// IsCIdentifier 检查字符串是否是合法的 C 标识符
// 规则: 首字符为字母或下划线，其余为字母、数字或下划线
func IsCIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// IsReservedWord 检查是否是 C/C++ 关键字
func IsReservedWord(s string) bool {
	return lo.Contains(reservedWords, s)
}

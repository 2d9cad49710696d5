package derivation

import "fmt"

// Mode 定义子节点相对父节点的派生方式
type Mode uint8

const (
	// Hardened 需要父节点秘密，派生出的子秘密无法从公开数据推出
	Hardened Mode = iota + 1
	// NonHardened 只需父节点公钥即可派生子公钥 (观察钱包)
	NonHardened
)

func (m Mode) String() string {
	switch m {
	case Hardened:
		return "hardened"
	case NonHardened:
		return "non-hardened"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Valid 返回是否为已知模式
func (m Mode) Valid() bool {
	return m == Hardened || m == NonHardened
}

// Marker 返回路径表示法中的后缀: Hardened 为 "'"，否则为空
func (m Mode) Marker() string {
	if m == Hardened {
		return "'"
	}
	return ""
}

// ParseMode 解析 Mode.String 的输出
func ParseMode(s string) (Mode, error) {
	switch s {
	case "hardened":
		return Hardened, nil
	case "non-hardened":
		return NonHardened, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

//go:build !windows

package handlers

// unsupportedHive fails every operation with ErrUnsupported.
type unsupportedHive struct{}

// NewOSHive returns a hive that reports ErrUnsupported.
func NewOSHive() RegistryHive {
	return unsupportedHive{}
}

func (unsupportedHive) OpenForWrite(string) error { return ErrUnsupported }

func (unsupportedHive) GetString(string, string) (string, error) { return "", ErrUnsupported }

func (unsupportedHive) GetDWORD(string, string) (uint32, error) { return 0, ErrUnsupported }

func (unsupportedHive) SetString(string, string, string) error { return ErrUnsupported }

func (unsupportedHive) DeleteValue(string, string) error { return ErrUnsupported }

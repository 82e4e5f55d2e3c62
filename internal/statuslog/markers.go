package statuslog

// Markers are the glyphs and localized terms that flag a terminal message.
type Markers struct {
	Success []string `mapstructure:"success" yaml:"success"`
	Failure []string `mapstructure:"failure" yaml:"failure"`
}

func DefaultMarkers() Markers {
	return Markers{
		Success: []string{"🎉", "完成"},
		Failure: []string{"❌", "失败"},
	}
}

// Merge fills empty fields of m from fallback.
func (m Markers) Merge(fallback Markers) Markers {
	if len(m.Success) == 0 {
		m.Success = fallback.Success
	}
	if len(m.Failure) == 0 {
		m.Failure = fallback.Failure
	}
	return m
}

func (m Markers) Complete(message string) bool {
	return containsAny(message, m.Success)
}

func (m Markers) Failed(message string) bool {
	return containsAny(message, m.Failure)
}

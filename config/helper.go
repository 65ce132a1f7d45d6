package config

// Load 把指定节绑定到 T，section 为空时绑定整个配置
func Load[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

// LoadOrDefault 节不存在时返回 def
func LoadOrDefault[T any](cfg Configuration, section string, def T) T {
	if cfg == nil {
		return def
	}
	t := def
	if err := cfg.Bind(section, &t); err != nil {
		return def
	}
	return t
}

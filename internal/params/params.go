package params

// ParseString возвращает строковое значение ключа.
func ParseString(key string, params map[string]any, def ...string) (string, error) {
	return parse(key, params, "string", false, def)
}

// ParseInt возвращает целое значение ключа.
// Default 0 считается незаданным.
func ParseInt(key string, params map[string]any, def ...int) (int, error) {
	return parse(key, params, "int", true, def)
}

// ParseFloat возвращает значение ключа с плавающей точкой.
// Default 0.0 считается незаданным.
func ParseFloat(key string, params map[string]any, def ...float64) (float64, error) {
	return parse(key, params, "float", true, def)
}

// ParseBool возвращает булево значение ключа.
func ParseBool(key string, params map[string]any, def ...bool) (bool, error) {
	return parse(key, params, "bool", false, def)
}

// ParseMap возвращает вложенную map.
func ParseMap(key string, params map[string]any, def ...map[string]any) (map[string]any, error) {
	v, ok := params[key]
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return nil, absentError(key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError(key, "map")
	}
	return m, nil
}

// ResolveString ищет строку в primary, затем в fallback.
func ResolveString(key string, primary, fallback map[string]any, def ...string) (string, error) {
	return resolve(key, primary, fallback, "string", def)
}

// ResolveInt ищет целое в primary, затем в fallback.
// В отличие от ParseInt, default 0 допустим.
func ResolveInt(key string, primary, fallback map[string]any, def ...int) (int, error) {
	return resolve(key, primary, fallback, "int", def)
}

// ResolveFloat ищет float64 в primary, затем в fallback.
func ResolveFloat(key string, primary, fallback map[string]any, def ...float64) (float64, error) {
	return resolve(key, primary, fallback, "float", def)
}

// ResolveBool ищет bool в primary, затем в fallback.
func ResolveBool(key string, primary, fallback map[string]any, def ...bool) (bool, error) {
	return resolve(key, primary, fallback, "bool", def)
}

// parse — общая реализация Parse*.
//
// zeroIsAbsent повторяет поведение числовых парсеров: нулевой default
// не используется, и отсутствие ключа приводит к ошибке.
func parse[T comparable](key string, params map[string]any, typeName string, zeroIsAbsent bool, def []T) (T, error) {
	var zero T

	v, ok := params[key]
	if !ok {
		if len(def) > 0 && (!zeroIsAbsent || def[0] != zero) {
			return def[0], nil
		}
		return zero, absentError(key)
	}

	t, ok := v.(T)
	if !ok {
		return zero, typeError(key, typeName)
	}
	return t, nil
}

// resolve — общая реализация Resolve*.
func resolve[T any](key string, primary, fallback map[string]any, typeName string, def []T) (T, error) {
	var zero T

	v, ok := primary[key]
	if !ok {
		v, ok = fallback[key]
	}
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return zero, absentError(key)
	}

	t, ok := v.(T)
	if !ok {
		return zero, typeError(key, typeName)
	}
	return t, nil
}

package config

import "maps"

// Merge layers over on top of base and returns the result. Set fields of
// over win; zero-value fields fall through to base. Neither input is
// modified. Callers merge defaults, then the global file, then the project
// file, then CLI flags.
func Merge(base, over *Config) *Config {
	result := Config{}
	if base != nil {
		result = *base
		result.Server.CORSOrigins = append([]string(nil), base.Server.CORSOrigins...)
		result.Pages = maps.Clone(base.Pages)
	}
	if over == nil {
		return &result
	}

	// Source: a different driver starts from a clean driver block.
	src := over.Source
	if src.Driver != "" && src.Driver != result.Source.Driver {
		keep := result.Source
		result.Source = SourceConfig{
			Driver:  src.Driver,
			KeyEnv:  keep.KeyEnv,
			DSNEnv:  keep.DSNEnv,
			Rate:    keep.Rate,
			Timeout: keep.Timeout,
		}
	}
	setString(&result.Source.URL, src.URL)
	setString(&result.Source.KeyEnv, src.KeyEnv)
	setString(&result.Source.DSNEnv, src.DSNEnv)
	setString(&result.Source.Path, src.Path)
	setString(&result.Source.Dir, src.Dir)
	setString(&result.Source.Timeout, src.Timeout)
	if src.Rate != 0 {
		result.Source.Rate = src.Rate
	}

	// Site: coordinates move together.
	if over.Site.Latitude != 0 || over.Site.Longitude != 0 {
		result.Site.Latitude = over.Site.Latitude
		result.Site.Longitude = over.Site.Longitude
	}
	setString(&result.Site.Name, over.Site.Name)
	if over.Site.RadiusM != 0 {
		result.Site.RadiusM = over.Site.RadiusM
	}

	setString(&result.Timezone, over.Timezone)
	setString(&result.StateDir, over.StateDir)

	// Output: NoColor only ever turns color off.
	setString(&result.Output.Format, over.Output.Format)
	if over.Output.NoColor {
		result.Output.NoColor = true
	}

	setString(&result.Server.Addr, over.Server.Addr)
	if len(over.Server.CORSOrigins) > 0 {
		result.Server.CORSOrigins = append([]string(nil), over.Server.CORSOrigins...)
	}

	// Pages merge per page and per field.
	if len(over.Pages) > 0 && result.Pages == nil {
		result.Pages = make(map[string]PageConfig, len(over.Pages))
	}
	for name, op := range over.Pages {
		pc := result.Pages[name]
		if op.Enabled != nil {
			enabled := *op.Enabled
			pc.Enabled = &enabled
		}
		if op.Limit != 0 {
			pc.Limit = op.Limit
		}
		result.Pages[name] = pc
	}
	return &result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

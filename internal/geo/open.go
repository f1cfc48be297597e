package geo

import "ca-probe/internal/logger"

// Open：按配置路径构建解析链（MaxMind 优先，IP2Region 兜底）
// 约束：单个库打开失败只记录日志并跳过；全部缺失时返回 nil。
func Open(countryPath, asnPath, ip2regionPath string) Resolver {
	var list []Resolver
	if m, err := OpenMaxMind(countryPath, asnPath); err != nil {
		logger.L().Error("geoip_open_error", "err", err)
	} else if m != nil {
		list = append(list, m)
		logger.L().Info("geoip_ready", "country", countryPath, "asn", asnPath)
	}
	if r, err := OpenIP2Region(ip2regionPath); err != nil {
		logger.L().Error("ip2region_open_error", "err", err)
	} else if r != nil {
		list = append(list, r)
		logger.L().Info("ip2region_ready", "path", ip2regionPath)
	}
	if len(list) == 0 {
		return nil
	}
	return NewChain(list...)
}

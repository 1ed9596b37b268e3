package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Product{},
	&ProductImage{},
	&ProductVariant{},
	&ProductLimit{},
	// Ordering
	&AvailableDate{},
	&Order{},
}

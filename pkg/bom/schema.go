package bom

// Section schemas per product family. Widths are fixed; the sum of leaf
// widths is the digit length a code of that family must have (outdoor 22,
// pool 18, iceTub 12).
var schemas = map[Type][]Section{
	TypeOutdoor: {
		{Label: "系列", Width: 2, Meanings: map[string]string{
			"01": "尊享系列", "02": "舒适系列", "03": "入门系列",
		}},
		{Label: "规格", Width: 2, Meanings: map[string]string{
			"04": "4人位", "05": "5人位", "06": "6人位", "07": "7人位",
		}},
		{Label: "缸体颜色", Width: 2, Meanings: map[string]string{
			"01": "珍珠白", "02": "云石灰", "03": "午夜蓝", "04": "玛瑙黑",
		}},
		{Label: "裙边颜色", Width: 2, Meanings: map[string]string{
			"01": "深咖木纹", "02": "炭灰木纹", "03": "浅橡木纹",
		}},
		{Label: "水泵", Width: 4, Children: []Section{
			{Label: "按摩泵", Width: 2, Meanings: map[string]string{
				"01": "单速按摩泵", "02": "双速按摩泵", "03": "双按摩泵",
			}},
			{Label: "循环泵", Width: 2, Meanings: map[string]string{
				"01": "标准循环泵", "02": "静音循环泵",
			}},
		}},
		{Label: "喷嘴数量", Width: 3},
		{Label: "控制系统", Width: 2, Meanings: map[string]string{
			"01": "标准面板", "02": "触控面板", "03": "触控面板带WiFi",
		}},
		{Label: "加热器", Width: 2, Meanings: map[string]string{
			"01": "2kW电加热", "02": "3kW电加热", "03": "热泵加热",
		}},
		{Label: "保温", Width: 1, Meanings: map[string]string{
			"0": "标准保温", "1": "全发泡保温",
		}},
		{Label: "灯光", Width: 1, Meanings: map[string]string{
			"0": "无灯光", "1": "LED氛围灯",
		}},
		{Label: "附件包", Width: 1, Meanings: map[string]string{
			"0": "无附件包", "1": "标准附件包", "2": "豪华附件包",
		}},
	},

	TypePool: {
		{Label: "系列", Width: 2, Meanings: map[string]string{
			"01": "无边际系列", "02": "健身系列",
		}},
		{Label: "长度", Width: 3},
		{Label: "缸体颜色", Width: 2, Meanings: map[string]string{
			"01": "珍珠白", "02": "云石灰", "03": "午夜蓝",
		}},
		{Label: "逆流泵", Width: 2, Meanings: map[string]string{
			"01": "单逆流泵", "02": "双逆流泵",
		}},
		{Label: "过滤系统", Width: 2, Meanings: map[string]string{
			"01": "滤芯过滤", "02": "砂缸过滤",
		}},
		{Label: "控制系统", Width: 2, Meanings: map[string]string{
			"01": "标准面板", "02": "触控面板", "03": "触控面板带WiFi",
		}},
		{Label: "加热器", Width: 2, Meanings: map[string]string{
			"01": "3kW电加热", "02": "热泵加热",
		}},
		{Label: "保温", Width: 1, Meanings: map[string]string{
			"0": "标准保温", "1": "全发泡保温",
		}},
		{Label: "灯光", Width: 1, Meanings: map[string]string{
			"0": "无灯光", "1": "LED氛围灯",
		}},
		{Label: "盖板", Width: 1, Meanings: map[string]string{
			"0": "无盖板", "1": "保温盖板", "2": "电动盖板",
		}},
	},

	TypeIceTub: {
		{Label: "系列", Width: 2, Meanings: map[string]string{
			"01": "单人冷水桶", "02": "双人冷水桶",
		}},
		{Label: "容积", Width: 2, Meanings: map[string]string{
			"01": "300升", "02": "400升", "03": "500升",
		}},
		{Label: "制冷机组", Width: 2, Meanings: map[string]string{
			"01": "0.5匹机组", "02": "1匹机组",
		}},
		{Label: "过滤", Width: 2, Meanings: map[string]string{
			"01": "滤芯过滤", "02": "臭氧过滤",
		}},
		{Label: "控制系统", Width: 2, Meanings: map[string]string{
			"01": "标准面板", "02": "触控面板带WiFi",
		}},
		{Label: "保温", Width: 1, Meanings: map[string]string{
			"0": "标准保温", "1": "全发泡保温",
		}},
		{Label: "盖板", Width: 1, Meanings: map[string]string{
			"0": "无盖板", "1": "保温盖板",
		}},
	},
}

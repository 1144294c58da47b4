package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// TabColor classifies a sheet for reviewers.
type TabColor int

const (
	// TabNone marks a sheet with data and no findings.
	TabNone TabColor = iota
	// TabYellow marks a sheet with at least one highlighted cell.
	TabYellow
	// TabGray marks a placeholder sheet for a missing CSV.
	TabGray
)

const (
	grayRGB   = "7F7F7F"
	yellowRGB = "FFFF7F"
)

func (c TabColor) String() string {
	switch c {
	case TabYellow:
		return "yellow"
	case TabGray:
		return "gray"
	default:
		return "none"
	}
}

func (c TabColor) rgb() string {
	switch c {
	case TabYellow:
		return yellowRGB
	case TabGray:
		return grayRGB
	default:
		return ""
	}
}

// SetTabColor tags sheet with c. TabNone leaves the tab untouched.
func SetTabColor(f *excelize.File, sheet string, c TabColor) error {
	rgb := c.rgb()
	if rgb == "" {
		return nil
	}
	return f.SetSheetProps(sheet, &excelize.SheetPropsOptions{TabColorRGB: &rgb})
}

// GetTabColor reads back the classification of sheet. Colors other than the
// two known ones count as TabNone.
func GetTabColor(f *excelize.File, sheet string) (TabColor, error) {
	props, err := f.GetSheetProps(sheet)
	if err != nil {
		return TabNone, err
	}
	if props.TabColorRGB == nil {
		return TabNone, nil
	}

	// excelize stores ARGB; compare the RGB part only.
	rgb := strings.ToUpper(strings.TrimPrefix(*props.TabColorRGB, "#"))
	if len(rgb) > 6 {
		rgb = rgb[len(rgb)-6:]
	}
	switch rgb {
	case yellowRGB:
		return TabYellow, nil
	case grayRGB:
		return TabGray, nil
	default:
		return TabNone, nil
	}
}

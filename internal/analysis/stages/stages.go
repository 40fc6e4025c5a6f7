// Package stages registers every pipeline stage with the analysis registry.
package stages

import (
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/chargeload"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/charging"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/circle"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/corridor"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/energy"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/grid"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/highway"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/lifecycle"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/neighbors"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/policy"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/rates"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/simplify"
	_ "github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/survey"
)

package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type componentStat struct {
	warns  int64
	errors int64
}

var components sync.Map // map[string]*componentStat

func componentStats(name string) *componentStat {
	v, _ := components.LoadOrStore(name, &componentStat{})
	return v.(*componentStat)
}

func recordWarn(component string) {
	atomic.AddInt64(&componentStats(component).warns, 1)
}

func recordError(component string) {
	atomic.AddInt64(&componentStats(component).errors, 1)
}

// StartReport begins periodic logging of system and per-component warning
// and error statistics, publishing them to CloudWatch when configured.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	componentData := map[string]map[string]int64{}
	components.Range(func(k, v any) bool {
		name := k.(string)
		cs := v.(*componentStat)
		componentData[name] = map[string]int64{
			"warns":  atomic.LoadInt64(&cs.warns),
			"errors": atomic.LoadInt64(&cs.errors),
		}
		return true
	})

	fields := Fields{
		"goroutines":  runtime.NumGoroutine(),
		"cpu_percent": cpuPct,
		"memory_mb":   int64(memStats.Used) / 1024 / 1024,
		"disk_mb":     int64(diskStats.Used) / 1024 / 1024,
		"components":  componentData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	// Every runtime metric carries the dashboard dimension so one namespace
	// can serve several pipeline deployments.
	dashDim := cwtypes.Dimension{Name: aws.String("Dashboard"), Value: aws.String(cwDashboard)}
	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("Risk-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Dimensions: []cwtypes.Dimension{dashDim}, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("Risk-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Dimensions: []cwtypes.Dimension{dashDim}, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("Risk-DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Dimensions: []cwtypes.Dimension{dashDim}, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
	}

	for name, stats := range componentData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("Risk-ComponentWarns"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{dashDim, {Name: aws.String("Component"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["warns"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("Risk-ComponentErrors"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{dashDim, {Name: aws.String("Component"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["errors"])),
			},
		)
	}

	publishMetrics(ctx, data)
}

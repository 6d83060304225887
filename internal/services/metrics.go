package services

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type MetricSample struct {
	CapturedAt        time.Time `json:"captured_at" db:"captured_at"`
	HeapUsedBytes     int64     `json:"heap_used_bytes" db:"heap_used_bytes"`
	HeapMaxBytes      int64     `json:"heap_max_bytes" db:"heap_max_bytes"`
	SystemMemoryTotal int64     `json:"system_memory_total_bytes" db:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `json:"system_memory_used_bytes" db:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `json:"disk_total_bytes" db:"disk_total_bytes"`
	DiskUsedBytes     int64     `json:"disk_used_bytes" db:"disk_used_bytes"`
	ProcessCpuLoad    float64   `json:"process_cpu_load" db:"process_cpu_load"`
	SystemCpuLoad     float64   `json:"system_cpu_load" db:"system_cpu_load"`
}

type ContentCounts struct {
	Pages         int64 `json:"pages"`
	Modules       int64 `json:"modules"`
	Media         int64 `json:"media"`
	MediaBytes    int64 `json:"media_bytes"`
	Webhooks      int64 `json:"webhooks"`
	Relationships int64 `json:"relationships"`
}

// SampleMetrics reads process and host usage. Probes that fail report zero.
func SampleMetrics(diskPath string) MetricSample {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	sample := MetricSample{CapturedAt: time.Now().UTC()}
	if memStat, err := mem.VirtualMemory(); err == nil {
		sample.HeapMaxBytes = int64(memStat.Total)
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, err = disk.Usage("/")
	}
	if err == nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}
	if proc != nil {
		if rss, _ := proc.MemoryInfo(); rss != nil {
			sample.HeapUsedBytes = int64(rss.RSS)
		}
		cpuPerc, _ := proc.CPUPercent()
		sample.ProcessCpuLoad = cpuPerc / 100.0
	}
	if sysCPU, _ := cpu.Percent(0, false); len(sysCPU) > 0 {
		sample.SystemCpuLoad = sysCPU[0] / 100.0
	}
	return sample
}

// CaptureMetrics samples and stores one row in server_metric_samples.
func CaptureMetrics(db *sqlx.DB, diskPath string) (MetricSample, error) {
	sample := SampleMetrics(diskPath)
	_, err := db.Exec(db.Rebind(`
INSERT INTO server_metric_samples (
  id, captured_at, heap_used_bytes, heap_max_bytes, system_memory_total_bytes,
  system_memory_used_bytes, disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load
) VALUES (?,?,?,?,?,?,?,?,?,?)
`), uuid.NewString(), sample.CapturedAt, sample.HeapUsedBytes, sample.HeapMaxBytes, sample.SystemMemoryTotal,
		sample.SystemMemoryUsed, sample.DiskTotalBytes, sample.DiskUsedBytes, sample.ProcessCpuLoad, sample.SystemCpuLoad)
	if err != nil {
		return MetricSample{}, err
	}
	return sample, nil
}

// LatestMetrics returns up to limit samples, oldest first.
func LatestMetrics(db *sqlx.DB, limit int) ([]MetricSample, error) {
	rows := []MetricSample{}
	if err := db.Select(&rows, db.Rebind(`
SELECT captured_at, heap_used_bytes, heap_max_bytes, system_memory_total_bytes,
       system_memory_used_bytes, disk_total_bytes, disk_used_bytes, process_cpu_load, system_cpu_load
FROM server_metric_samples
ORDER BY captured_at DESC
LIMIT ?
`), limit); err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// PruneMetrics drops samples captured before cutoff.
func PruneMetrics(db *sqlx.DB, cutoff time.Time) error {
	_, err := db.Exec(db.Rebind(`DELETE FROM server_metric_samples WHERE captured_at < ?`), cutoff.UTC())
	return err
}

func CountContent(db *sqlx.DB) (ContentCounts, error) {
	var counts ContentCounts
	targets := []struct {
		dst   *int64
		query string
	}{
		{&counts.Pages, `SELECT COUNT(*) FROM pages`},
		{&counts.Modules, `SELECT COUNT(*) FROM modules`},
		{&counts.Media, `SELECT COUNT(*) FROM media`},
		{&counts.MediaBytes, `SELECT COALESCE(SUM(file_size), 0) FROM media`},
		{&counts.Webhooks, `SELECT COUNT(*) FROM webhooks`},
		{&counts.Relationships, `SELECT COUNT(*) FROM relationships`},
	}
	for _, t := range targets {
		if err := db.Get(t.dst, t.query); err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// MetricsHub broadcasts samples to every connected websocket.
type MetricsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan MetricSample
}

func NewMetricsHub() *MetricsHub {
	return &MetricsHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan MetricSample, 16),
	}
}

func (h *MetricsHub) Run(ctx context.Context) {
	for {
		select {
		case sample := <-h.ch:
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(sample); err != nil {
					delete(h.clients, conn)
					_ = conn.Close()
				}
			}
			h.mu.Unlock()
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				_ = conn.Close()
			}
			h.clients = map[*websocket.Conn]bool{}
			h.mu.Unlock()
			return
		}
	}
}

func (h *MetricsHub) Broadcast(sample MetricSample) {
	select {
	case h.ch <- sample:
	default:
	}
}

func (h *MetricsHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *MetricsHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *MetricsHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

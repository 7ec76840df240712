package disk

import (
	"log/slog"
	"sync"
)

// DiskScheduler fans page I/O out to one worker goroutine per page id, so
// requests against distinct pages never block behind each other while still
// serializing requests against the same page.
func NewScheduler(diskManager *diskManager) *DiskScheduler {
	ds := &DiskScheduler{
		reqCh:       make(chan DiskReq, 100),
		pageQueue:   make(map[int]chan DiskReq),
		diskManager: diskManager,
	}
	go ds.handleDiskReq()
	return ds
}

func NewRequest(pageId int64, data []byte, isWrite bool) DiskReq {
	return DiskReq{
		PageId: int(pageId),
		Data:   data,
		Write:  isWrite,
		RespCh: make(chan DiskResp),
	}
}

func (ds *DiskScheduler) Schedule(req DiskReq) <-chan DiskResp {
	ds.reqCh <- req
	return req.RespCh
}

func (ds *DiskScheduler) handleDiskReq() {
	for req := range ds.reqCh {
		ds.pageQueueMu.Lock()
		q, ok := ds.pageQueue[req.PageId]
		if !ok {
			q = make(chan DiskReq, 10)
			ds.pageQueue[req.PageId] = q
		}
		q <- req
		ds.pageQueueMu.Unlock()

		// !ok means we created a new page queue, therefore we should start a
		// new worker to handle the queue's page requests.
		if !ok {
			go ds.pageWorker(req.PageId, q)
		}
	}
}

// pageWorker drains reqQueue until it observes it empty, then removes its
// own entry from pageQueue. The empty-check and the removal happen under
// the same lock handleDiskReq uses to enqueue, so a request arriving in the
// gap between "queue looks empty" and "worker exits" can never be dropped:
// it either lands in the queue before the check (and gets drained) or after
// the entry is deleted (and handleDiskReq spins up a fresh worker for it).
func (ds *DiskScheduler) pageWorker(pageId int, reqQueue chan DiskReq) {
	for {
		ds.pageQueueMu.Lock()
		select {
		case req := <-reqQueue:
			ds.pageQueueMu.Unlock()
			ds.handle(req)
			continue
		default:
		}
		delete(ds.pageQueue, pageId)
		ds.pageQueueMu.Unlock()
		return
	}
}

func (ds *DiskScheduler) handle(req DiskReq) {
	if req.Write {
		if err := ds.diskManager.writePage(req.PageId, req.Data); err != nil {
			slog.Error("disk.write.failed", "pageId", req.PageId, "err", err)
			req.RespCh <- DiskResp{Success: false}
			return
		}
		req.RespCh <- DiskResp{Success: true}
		return
	}

	data, err := ds.diskManager.readPage(req.PageId)
	if err != nil {
		slog.Error("disk.read.failed", "pageId", req.PageId, "err", err)
		req.RespCh <- DiskResp{Success: false}
		return
	}
	req.RespCh <- DiskResp{Success: true, Data: data}
}

type DiskScheduler struct {
	reqCh       chan DiskReq
	diskManager *diskManager

	pageQueue   map[int]chan DiskReq
	pageQueueMu sync.Mutex
}

type DiskReq struct {
	PageId int
	Data   []byte
	Write  bool
	RespCh chan DiskResp
}

type DiskResp struct {
	Success bool
	Data    []byte
}

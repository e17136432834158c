package worker

import "github.com/hbomb79/Resonance/pkg/logger"

var workerLogger = logger.Get("Worker")

type WorkerStatus int

// WorkerTask is executed repeatedly by a worker. It should claim a
// single unit of work and report whether any work was found. A worker
// exits once its task reports that no work remains.
type WorkerTask func(Worker) (bool, error)

const (
	Idle WorkerStatus = iota
	Working
	Finished
)

type Worker interface {
	Start()
	Status() WorkerStatus
	Label() string
}

type taskWorker struct {
	label         string
	task          WorkerTask
	currentStatus WorkerStatus
	log           logger.Logger
}

func NewWorker(label string, task WorkerTask) *taskWorker {
	return &taskWorker{
		label:         label,
		task:          task,
		currentStatus: Idle,
		log:           workerLogger,
	}
}

// Start runs the workers task until it reports there is no
// more work to claim. Errors returned by the task are logged and
// do not stop the worker.
func (worker *taskWorker) Start() {
	worker.log.Emit(logger.VERBOSE, "Starting worker with label %v\n", worker.label)
	worker.currentStatus = Working
	for {
		didWork, err := worker.task(worker)
		if err != nil {
			worker.log.Emit(logger.ERROR, "Worker with label %v has reported an error(%T): %v\n", worker.label, err, err.Error())
		}

		if !didWork {
			break
		}
	}

	worker.currentStatus = Finished
	worker.log.Emit(logger.VERBOSE, "Worker with label %v has stopped\n", worker.label)
}

// Status returns the current status of this worker
func (worker *taskWorker) Status() WorkerStatus {
	return worker.currentStatus
}

// Label returns the label for this worker
func (worker *taskWorker) Label() string {
	return worker.label
}

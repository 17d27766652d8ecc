package config

type WorkerKeyStruct struct {
	RecognitionEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	RecognitionEventsQueue: "recognition_events_queue",
}

package ota

// welcomeBanner is shown by recovery at the start of a full OTA install. It is always
// eight lines: the seven lines of the device tree's original banner plus the Project line.
var welcomeBanner = [...]string{
	`ui_print("                                                    ");`,
	`ui_print("                Thanks for installing               ");`,
	`ui_print("    Source code available on GitHub : @Exynos7580   ");`,
	`ui_print("                                                    ");`,
	`ui_print("    --> Maintainer: l-0-w                           ");`,
	`ui_print("    --> Device: Samsung Galaxy A3 2016              ");`,
	`ui_print("    --> Project: LineageOS for Exynos7580           ");`,
	`ui_print("                                                    ");`,
}

// WelcomeBanner returns the eight banner instructions in display order.
func WelcomeBanner() []string {
	return append([]string(nil), welcomeBanner[:]...)
}

// InjectWelcomeMessage appends the welcome banner to script.
func InjectWelcomeMessage(script ScriptWriter) error {
	for _, line := range welcomeBanner {
		if err := script.AppendExtra(line); err != nil {
			return err
		}
	}
	return nil
}

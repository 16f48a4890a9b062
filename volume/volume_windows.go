//go:build windows

package volume

import "fmt"

// Windows treats a scalar of 0 as mute on some drivers; keep the endpoint audible.
const DefaultFloor = 1

// endpointVolume exposes IAudioEndpointVolume to PowerShell as [Hark.Audio].
const endpointVolume = `
Add-Type -TypeDefinition @'
using System.Runtime.InteropServices;
namespace Hark {
[Guid("5CDF2C82-841E-4546-9722-0CF74078229A"), InterfaceType(ComInterfaceType.InterfaceIsIUnknown)]
interface IAudioEndpointVolume {
  int f(); int g(); int h(); int i();
  int SetMasterVolumeLevelScalar(float fLevel, System.Guid pguidEventContext);
  int j();
  int GetMasterVolumeLevelScalar(out float pfLevel);
}
[Guid("D666063F-1587-4E43-81F1-B948E807363F"), InterfaceType(ComInterfaceType.InterfaceIsIUnknown)]
interface IMMDevice {
  int Activate(ref System.Guid id, int clsCtx, int activationParams, out IAudioEndpointVolume aev);
}
[Guid("A95664D2-9614-4F35-A746-DE8DB63617E6"), InterfaceType(ComInterfaceType.InterfaceIsIUnknown)]
interface IMMDeviceEnumerator {
  int f();
  int GetDefaultAudioEndpoint(int dataFlow, int role, out IMMDevice endpoint);
}
[ComImport, Guid("BCDE0395-E52F-467C-8E3D-C4579291692E")] class MMDeviceEnumeratorComObject { }
public class Audio {
  static IAudioEndpointVolume Vol() {
    var enumerator = new MMDeviceEnumeratorComObject() as IMMDeviceEnumerator;
    IMMDevice dev = null;
    Marshal.ThrowExceptionForHR(enumerator.GetDefaultAudioEndpoint(0, 1, out dev));
    IAudioEndpointVolume epv = null;
    var epvid = typeof(IAudioEndpointVolume).GUID;
    Marshal.ThrowExceptionForHR(dev.Activate(ref epvid, 23, 0, out epv));
    return epv;
  }
  public static float Volume {
    get { float v = -1; Marshal.ThrowExceptionForHR(Vol().GetMasterVolumeLevelScalar(out v)); return v; }
    set { Marshal.ThrowExceptionForHR(Vol().SetMasterVolumeLevelScalar(value, System.Guid.Empty)); }
  }
}
}
'@
`

type powershellBackend struct{}

func NewSystem() Backend { return powershellBackend{} }

func (powershellBackend) Get() (int, error) {
	out, err := run("powershell", "-NoProfile", "-NonInteractive", "-Command",
		endpointVolume+"[math]::Round([Hark.Audio]::Volume * 100)")
	if err != nil {
		return 0, err
	}
	return parsePercent(out)
}

func (powershellBackend) Set(percent int) error {
	_, err := run("powershell", "-NoProfile", "-NonInteractive", "-Command",
		endpointVolume+fmt.Sprintf("[Hark.Audio]::Volume = %.2f", float64(clamp(percent, 0, 100))/100))
	return err
}
